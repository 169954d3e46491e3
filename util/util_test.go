package util

import (
	"strings"
	"testing"
)

func TestGetNameAndVersion(t *testing.T) {
	result := GetNameAndVersion()

	if !strings.HasPrefix(result, "fedfit / ") {
		t.Errorf("Expected 'fedfit / <version>', got '%s'", result)
	}
	if GetVersion() == "" {
		t.Error("Embedded version must not be empty")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "hunter2" {
		t.Error("Hash must not be the plaintext")
	}

	if !CheckPassword(hash, "hunter2") {
		t.Error("Correct password should verify")
	}
	if CheckPassword(hash, "hunter3") {
		t.Error("Wrong password should not verify")
	}
	if CheckPassword("not a hash", "hunter2") {
		t.Error("Garbage hash should not verify")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	hash1, _ := HashPassword("same password")
	hash2, _ := HashPassword("same password")

	if hash1 == hash2 {
		t.Error("Two hashes of the same password should differ")
	}
}

func TestNormalizeInput(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "newlines replaced",
			input:    "line1\nline2\nline3",
			expected: "line1 line2 line3",
		},
		{
			name:     "html escaped",
			input:    "<script>alert('xss')</script>",
			expected: "&lt;script&gt;alert(&#39;xss&#39;)&lt;/script&gt;",
		},
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "normal text",
			input:    "Hello World",
			expected: "Hello World",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NormalizeInput(tt.input)
			if result != tt.expected {
				t.Errorf("Expected '%s', got '%s'", tt.expected, result)
			}
		})
	}
}

func TestGeneratePemKeypair(t *testing.T) {
	keypair := GeneratePemKeypair()

	if keypair == nil {
		t.Fatal("GeneratePemKeypair returned nil")
	}

	if !strings.Contains(keypair.Private, "BEGIN RSA PRIVATE KEY") {
		t.Error("Private key doesn't have PEM header")
	}
	if !strings.Contains(keypair.Private, "END RSA PRIVATE KEY") {
		t.Error("Private key doesn't have PEM footer")
	}

	if !strings.Contains(keypair.Public, "BEGIN RSA PUBLIC KEY") {
		t.Error("Public key doesn't have PEM header")
	}
	if !strings.Contains(keypair.Public, "END RSA PUBLIC KEY") {
		t.Error("Public key doesn't have PEM footer")
	}
}

func TestGeneratePemKeypairUniqueness(t *testing.T) {
	keypair1 := GeneratePemKeypair()
	keypair2 := GeneratePemKeypair()

	if keypair1.Private == keypair2.Private {
		t.Error("Generated keypairs should be different")
	}
	if keypair1.Public == keypair2.Public {
		t.Error("Generated public keys should be different")
	}
}
