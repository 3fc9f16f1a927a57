package object

import "strings"

// SignatureHeader is the commit header that carries a detached signature.
const SignatureHeader = "gpgsig"

const sshSignatureBegin = "-----BEGIN SSH SIGNATURE-----"

// CommitSigningPayload returns the canonical bytes that are signed for a
// commit: the commit encoded without its signature header.
func CommitSigningPayload(c *Commit) ([]byte, error) {
	if c == nil {
		return nil, invalidRecordf("nil commit")
	}
	unsigned := *c
	unsigned.Extra = nil
	for _, h := range c.Extra {
		if h.Key != SignatureHeader {
			unsigned.Extra = append(unsigned.Extra, h)
		}
	}
	return MarshalCommit(&unsigned)
}

// CommitSignature returns the armored signature stored in c, if any.
func CommitSignature(c *Commit) (string, bool) {
	return c.Header(SignatureHeader)
}

// SplitTagSignature separates an armored SSH signature appended to a tag
// message from the message itself.
func SplitTagSignature(message string) (body, signature string, ok bool) {
	i := strings.LastIndex(message, sshSignatureBegin)
	if i < 0 || (i > 0 && message[i-1] != '\n') {
		return message, "", false
	}
	return message[:i], message[i:], true
}

// TagSigningPayload returns the bytes that are signed for a tag: the tag
// encoded with its message truncated before any appended signature.
func TagSigningPayload(t *Tag) ([]byte, error) {
	if t == nil {
		return nil, invalidRecordf("nil tag")
	}
	unsigned := *t
	unsigned.Message, _, _ = SplitTagSignature(t.Message)
	return MarshalTag(&unsigned)
}
