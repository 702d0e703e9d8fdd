package service

import "fmt"

func magicLinkEmailTemplate(magicURL, appName string) (string, string) {
	subject := fmt.Sprintf("Sign in to %s", appName)
	body := fmt.Sprintf(`Click this link to sign in to your account:
%s

This link expires in 10 minutes and can only be used once.

If you didn't request this, ignore this email.

Best,
The %s Team`, magicURL, appName)

	return subject, body
}

func passwordResetEmailTemplate(resetURL, appName string) (string, string) {
	subject := fmt.Sprintf("Reset your password for %s", appName)
	body := fmt.Sprintf(`You requested to reset your password. Use this link to choose a new one:
%s

This link expires in 10 minutes and can only be used once.

If you didn't request this, you can safely ignore this email. Your password won't be changed.

Best,
The %s Team`, resetURL, appName)

	return subject, body
}

func welcomeEmailTemplate(name, chatURL, appName string) (string, string) {
	greeting := "Hi"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s", name)
	}

	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`%s,

Your account is ready. Your companion is waiting to meet you.

Start chatting: %s

If you have questions, reach out to our support team.

Best,
The %s Team`, greeting, chatURL, appName)

	return subject, body
}

func accountDeletedEmailTemplate(name, appName string) (string, string) {
	greeting := "Hi"
	if name != "" {
		greeting = fmt.Sprintf("Hi %s", name)
	}

	subject := fmt.Sprintf("Your %s account has been deleted", appName)
	body := fmt.Sprintf(`%s,

Your account has been permanently deleted from %s.

All your data, including your conversations, memories, and settings, has been removed from our systems.

If you didn't request this deletion, please contact our support team immediately, though we won't be able to recover your account.

We're sorry to see you go. If you change your mind, you're welcome to create a new account anytime.

Best,
The %s Team`, greeting, appName, appName)

	return subject, body
}

func supportEmailTemplate(userEmail, topic, message, appName string) (string, string) {
	subject := fmt.Sprintf("[%s Support] %s", appName, topic)
	body := fmt.Sprintf(`New support request

From: %s
Topic: %s

%s`, userEmail, topic, message)

	return subject, body
}
