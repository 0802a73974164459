// password.go - hashing and verification of the optional file password.
package server

import "golang.org/x/crypto/bcrypt"

// hashPassword derives a bcrypt hash at the given cost. bcrypt salts every
// hash itself, so two hashes of the same password never match byte-wise.
func hashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword reports whether the plaintext matches the stored hash.
func verifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
