package auth

// Claims es lo que el proveedor de identidad afirma del token.
// Solo UserID se usa para resolver el actor; rol y hospital salen del
// registro de usuarios, nunca del token.
type Claims struct {
	UserID   string
	Email    string
	TenantID string
}
