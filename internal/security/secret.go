// Package security contiene las primitivas criptográficas del servicio:
// hashing y verificación de secretos de clientes API.
package security

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret devuelve el hash bcrypt de un client secret, listo para
// guardar en la configuración (auth.clients[].secret_hash).
func HashSecret(secret string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("empty secret")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifySecret compara un secret en claro contra su hash bcrypt.
// La comparación es de tiempo constante.
func VerifySecret(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}
