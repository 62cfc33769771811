package attachment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/grantledger/internal/attachment"
)

func TestSafeName(t *testing.T) {
	type testCase struct {
		name string
		in   string
		want string
	}

	tests := []testCase{
		{name: "Plain", in: "receipt.pdf", want: "receipt.pdf"},
		{name: "Spaces", in: "hotel receipt (1).pdf", want: "hotel_receipt__1_.pdf"},
		{name: "Traversal", in: "../../etc/passwd", want: "passwd"},
		{name: "WindowsPath", in: `C:\Users\ada\scan.png`, want: "scan.png"},
		{name: "Hidden", in: ".env", want: "env"},
		{name: "Empty", in: "", want: "proof"},
		{name: "Root", in: "/", want: "proof"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, attachment.SafeName(tt.in))
		})
	}
}
