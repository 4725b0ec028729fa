package password

import (
	"strings"
	"testing"
)

func TestBcryptPasswordService(t *testing.T) {
	service := NewBcryptPasswordService(4) // low cost keeps tests fast

	t.Run("Hash", func(t *testing.T) {
		hash, err := service.Hash("test-password-123")
		if err != nil {
			t.Errorf("Failed to hash password: %v", err)
		}
		if hash == "" {
			t.Error("Hash should not be empty")
		}
	})

	t.Run("HashEmptyPassword", func(t *testing.T) {
		_, err := service.Hash("")
		if err == nil {
			t.Error("Should fail to hash empty password")
		}
	})

	t.Run("VerifyRoundTrip", func(t *testing.T) {
		password := "test-password-123"
		hash, err := service.Hash(password)
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}

		if !service.Verify(password, hash) {
			t.Error("Password should verify against its own hash")
		}
	})

	t.Run("VerifyWrongPassword", func(t *testing.T) {
		hash, err := service.Hash("test-password-123")
		if err != nil {
			t.Fatalf("Failed to hash password: %v", err)
		}

		if service.Verify("wrong-password-456", hash) {
			t.Error("Wrong password should not verify")
		}
	})

	t.Run("VerifyCorruptedHash", func(t *testing.T) {
		if service.Verify("password", "not-a-bcrypt-hash") {
			t.Error("Corrupted hash should fail closed")
		}
	})

	t.Run("VerifyEmptyInputs", func(t *testing.T) {
		if service.Verify("", "$2a$10$abcdefghijklmnopqrstuv") {
			t.Error("Empty password should not verify")
		}
		if service.Verify("password", "") {
			t.Error("Empty hash should not verify")
		}
	})

	t.Run("DefaultCost", func(t *testing.T) {
		s := NewBcryptPasswordService(0)
		if s.cost != DefaultCost {
			t.Errorf("Expected default cost %d, got %d", DefaultCost, s.cost)
		}
	})
}

func TestScore(t *testing.T) {
	service := NewBcryptPasswordService(4)

	tests := []struct {
		name       string
		password   string
		wantValid  bool
		wantScore  int
		violations int
	}{
		{"AllClassesLong", "Secr3t!23Long", true, 100, 0},
		{"AllClassesShort", "Secr3t!2", true, 80, 0},
		{"TooShort", "Ab1!", false, 80, 1},
		{"NoUpperNoSpecial", "secret123", false, 40, 2},
		{"OnlyLower", "secretpassword", false, 40, 3}, // 20 class + 20 length bonus
		{"Empty", "", false, 0, 5},
		{"KnownWeak", "password123", false, 40, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := service.Score(tt.password)
			if got.Valid != tt.wantValid {
				t.Errorf("Score(%q).Valid = %v, want %v (violations: %v)", tt.password, got.Valid, tt.wantValid, got.Violations)
			}
			if got.Score != tt.wantScore {
				t.Errorf("Score(%q).Score = %d, want %d", tt.password, got.Score, tt.wantScore)
			}
			if len(got.Violations) != tt.violations {
				t.Errorf("Score(%q) violations = %v, want %d entries", tt.password, got.Violations, tt.violations)
			}
		})
	}
}

func TestGenerate(t *testing.T) {
	service := NewBcryptPasswordService(4)

	t.Run("DefaultLength", func(t *testing.T) {
		password, err := service.Generate(0)
		if err != nil {
			t.Fatalf("Failed to generate password: %v", err)
		}
		if len(password) != 12 {
			t.Errorf("Expected length 12, got %d", len(password))
		}
	})

	t.Run("ContainsAllClasses", func(t *testing.T) {
		for i := 0; i < 10; i++ {
			password, err := service.Generate(16)
			if err != nil {
				t.Fatalf("Failed to generate password: %v", err)
			}
			if !strings.ContainsAny(password, lowerChars) ||
				!strings.ContainsAny(password, upperChars) ||
				!strings.ContainsAny(password, digitChars) ||
				!strings.ContainsAny(password, specialChars) {
				t.Errorf("Generated password %q missing a required class", password)
			}
		}
	})

	t.Run("GeneratedPasswordIsValid", func(t *testing.T) {
		password, err := service.Generate(12)
		if err != nil {
			t.Fatalf("Failed to generate password: %v", err)
		}
		if got := service.Score(password); !got.Valid {
			t.Errorf("Generated password %q scored invalid: %v", password, got.Violations)
		}
	})
}
