package models

import (
	"testing"

	"bitbucket.org/mmdatafocus/gstbill_backend/utils"
)

func TestPasswordMatches(t *testing.T) {
	hashed, err := utils.HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}

	if !passwordMatches(string(hashed), "s3cret") {
		t.Fatalf("correct password rejected")
	}
	if passwordMatches(string(hashed), "wrong") {
		t.Fatalf("wrong password accepted")
	}
}

func TestPasswordMatches_MalformedHashDenies(t *testing.T) {
	// Comparison fails with an error other than a plain mismatch; that must
	// still read as a failed login.
	if passwordMatches("not-a-bcrypt-hash", "anything") {
		t.Fatalf("malformed stored hash accepted")
	}
	if passwordMatches("", "anything") {
		t.Fatalf("empty stored hash accepted")
	}
}
