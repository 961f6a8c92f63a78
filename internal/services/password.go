package services

import "golang.org/x/crypto/bcrypt"

// PasswordVerifier hashes and checks user passwords.
type PasswordVerifier interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type BcryptVerifier struct {
	Cost int
}

func NewBcryptVerifier() *BcryptVerifier {
	return &BcryptVerifier{Cost: bcrypt.DefaultCost}
}

func (v *BcryptVerifier) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), v.Cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (v *BcryptVerifier) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
