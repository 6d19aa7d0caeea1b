package mail

import (
	"bytes"
	"fmt"
	"mime"
	netmail "net/mail"
	"time"

	"github.com/google/uuid"
)

const verificationSubject = "Verify your email"

// composeVerification renders a plain-text RFC 5322 message carrying the
// verification link for code.
func composeVerification(from, to, verifyURL, code string, now time.Time) ([]byte, error) {
	fromAddr, err := netmail.ParseAddress(from)
	if err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	toAddr, err := netmail.ParseAddress(to)
	if err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", fromAddr.String())
	fmt.Fprintf(&b, "To: %s\r\n", toAddr.String())
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", verificationSubject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	fmt.Fprintf(&b, "Message-ID: <%s@eatsauth>\r\n", uuid.NewString())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hello %s,\r\n\r\n", toAddr.Address)
	b.WriteString("Please confirm your account by following the link below:\r\n\r\n")
	fmt.Fprintf(&b, "%s%s\r\n", verifyURL, code)
	return b.Bytes(), nil
}
