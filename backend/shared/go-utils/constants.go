package utils

const (
	OrganizationName                      = "CleanMatch"
	CORSLowSecurityAllowedOriginLocalhost = "http://localhost:*"

	// Addresses ending in this suffix never reach SendGrid outside production.
	TestEmailSuffix = "@testing.cleanmatch.app"
)
