// Package sign produces and checks SSH signatures in the armored sshsig
// format that git writes for gpg.format=ssh.
package sign

import (
	"bytes"
	"crypto/rand"
	"crypto/sha512"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
)

// Namespace is the sshsig namespace git uses for commits and tags.
const Namespace = "git"

const (
	magicPreamble = "SSHSIG"
	sigVersion    = 1
	hashAlgorithm = "sha512"
	pemType       = "SSH SIGNATURE"
)

var ErrBadSignature = errors.New("bad signature")

// Signer signs payloads with an SSH private key.
type Signer struct {
	key  ssh.Signer
	path string
}

// LoadSigner reads an unencrypted SSH private key. An empty path picks the
// first of ~/.ssh/id_ed25519, id_ecdsa and id_rsa that exists.
func LoadSigner(keyPath string) (*Signer, error) {
	resolved, err := resolveKeyPath(keyPath)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read signing key %q: %w", resolved, err)
	}
	key, err := ssh.ParsePrivateKey(raw)
	if err != nil {
		return nil, fmt.Errorf("parse signing key %q: %w", resolved, err)
	}
	return &Signer{key: key, path: resolved}, nil
}

// NewSigner wraps an existing ssh.Signer.
func NewSigner(key ssh.Signer) *Signer {
	return &Signer{key: key}
}

// Path is the key file the signer was loaded from, if any.
func (s *Signer) Path() string { return s.path }

// PublicKey returns the signer's public key.
func (s *Signer) PublicKey() ssh.PublicKey { return s.key.PublicKey() }

type signedData struct {
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Hash          string
}

type signatureBlob struct {
	Version       uint32
	PublicKey     string
	Namespace     string
	Reserved      string
	HashAlgorithm string
	Signature     string
}

func messageToSign(payload []byte, namespace string) []byte {
	sum := sha512.Sum512(payload)
	return append([]byte(magicPreamble), ssh.Marshal(signedData{
		Namespace:     namespace,
		HashAlgorithm: hashAlgorithm,
		Hash:          string(sum[:]),
	})...)
}

// Sign returns an armored SSH SIGNATURE block over payload.
func (s *Signer) Sign(payload []byte, namespace string) (string, error) {
	msg := messageToSign(payload, namespace)

	var sig *ssh.Signature
	var err error
	if as, ok := s.key.(ssh.AlgorithmSigner); ok && s.key.PublicKey().Type() == ssh.KeyAlgoRSA {
		sig, err = as.SignWithAlgorithm(rand.Reader, msg, ssh.KeyAlgoRSASHA512)
	} else {
		sig, err = s.key.Sign(rand.Reader, msg)
	}
	if err != nil {
		return "", fmt.Errorf("sign: %w", err)
	}

	blob := append([]byte(magicPreamble), ssh.Marshal(signatureBlob{
		Version:       sigVersion,
		PublicKey:     string(s.key.PublicKey().Marshal()),
		Namespace:     namespace,
		HashAlgorithm: hashAlgorithm,
		Signature:     string(ssh.Marshal(*sig)),
	})...)
	armored := pem.EncodeToMemory(&pem.Block{Type: pemType, Bytes: blob})
	return strings.TrimSuffix(string(armored), "\n"), nil
}

// Verify checks an armored signature over payload and returns the public
// key that produced it.
func Verify(payload []byte, armored, namespace string) (ssh.PublicKey, error) {
	block, _ := pem.Decode([]byte(strings.TrimSpace(armored) + "\n"))
	if block == nil || block.Type != pemType {
		return nil, fmt.Errorf("%w: not an armored SSH signature", ErrBadSignature)
	}
	if !bytes.HasPrefix(block.Bytes, []byte(magicPreamble)) {
		return nil, fmt.Errorf("%w: missing %s preamble", ErrBadSignature, magicPreamble)
	}

	var blob signatureBlob
	if err := ssh.Unmarshal(block.Bytes[len(magicPreamble):], &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if blob.Version != sigVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadSignature, blob.Version)
	}
	if blob.Namespace != namespace {
		return nil, fmt.Errorf("%w: namespace %q, want %q", ErrBadSignature, blob.Namespace, namespace)
	}
	if blob.HashAlgorithm != hashAlgorithm {
		return nil, fmt.Errorf("%w: unsupported hash %q", ErrBadSignature, blob.HashAlgorithm)
	}

	pub, err := ssh.ParsePublicKey([]byte(blob.PublicKey))
	if err != nil {
		return nil, fmt.Errorf("%w: public key: %v", ErrBadSignature, err)
	}
	var sig ssh.Signature
	if err := ssh.Unmarshal([]byte(blob.Signature), &sig); err != nil {
		return nil, fmt.Errorf("%w: signature: %v", ErrBadSignature, err)
	}
	if err := pub.Verify(messageToSign(payload, namespace), &sig); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return pub, nil
}

// Fingerprint formats a public key as git and ssh-keygen print it.
func Fingerprint(pub ssh.PublicKey) string {
	return ssh.FingerprintSHA256(pub)
}

func resolveKeyPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path != "" {
		return expandUserPath(path)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	candidates := []string{
		filepath.Join(home, ".ssh", "id_ed25519"),
		filepath.Join(home, ".ssh", "id_ecdsa"),
		filepath.Join(home, ".ssh", "id_rsa"),
	}
	for _, candidate := range candidates {
		if st, err := os.Stat(candidate); err == nil && !st.IsDir() {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no default SSH private key found in ~/.ssh (id_ed25519, id_ecdsa, id_rsa)")
}

func expandUserPath(path string) (string, error) {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}
	return filepath.Abs(path)
}
