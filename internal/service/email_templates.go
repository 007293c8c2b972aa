package service

import "fmt"

func verificationEmailTemplate(name, code, appName string) (string, string) {
	subject := fmt.Sprintf("Verify your email for %s", appName)
	body := fmt.Sprintf(`Hi %s,

Welcome to %s! Use this code to verify your email address:

%s

This code expires in 1 hour and can only be used once.

If you didn't create an account, you can safely ignore this email.

Best,
The %s Team`, name, appName, code, appName)

	return subject, body
}

func passwordResetEmailTemplate(name, code, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`Hi %s,

You requested to reset your password. Use this code to set a new one:

%s

This code expires in 1 hour and can only be used once.

If you didn't request this, ignore this email. Your password won't be changed.

Best,
The %s Team`, name, code, appName)

	return subject, body
}
