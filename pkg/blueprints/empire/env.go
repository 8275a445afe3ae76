package empire

import "fmt"

// DatabaseURL formats the connection url Empire expects in EMPIRE_DATABASE_URL.
func DatabaseURL(provider, user, password, host, dbName string) string {
	return fmt.Sprintf("%s://%s:%s@%s/%s", provider, user, password, host, dbName)
}
