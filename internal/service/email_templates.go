package service

import "fmt"

func welcomeEmailTemplate(username, appURL, appName string) (subject, body string) {
	subject = fmt.Sprintf("Welcome to %s", appName)
	body = fmt.Sprintf(`Hello %s,

Your %s account is ready. Sign in to start uploading and organizing
your documents:

%s

If you did not create this account, you can ignore this email.`, username, appName, appURL)
	return subject, body
}

func passwordResetEmailTemplate(username, resetURL, appName string) (subject, body string) {
	subject = fmt.Sprintf("%s - Password Reset Request", appName)
	body = fmt.Sprintf(`Hello %s,

We received a request to reset the password for your %s account. Open
the link below to choose a new password:

%s

The link expires in 1 hour. If you did not request a reset, you can
ignore this email and your password will remain unchanged.`, username, appName, resetURL)
	return subject, body
}
