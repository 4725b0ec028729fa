package outbound

// PasswordStrength is the result of scoring a candidate password. Score is
// 0-100; Valid means the password meets the minimum policy.
type PasswordStrength struct {
	Valid      bool     `json:"valid"`
	Violations []string `json:"violations"`
	Score      int      `json:"score"`
}

type PasswordService interface {
	Hash(password string) (string, error)
	// Verify is fail-closed: mismatch and internal corruption both return
	// false. It never returns an error.
	Verify(password, hash string) bool
	Score(password string) PasswordStrength
	Generate(length int) (string, error)
}
