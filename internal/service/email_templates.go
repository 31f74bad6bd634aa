package service

import "fmt"

func welcomeEmailTemplate(name, feedURL, appName string) (string, string) {
	subject := fmt.Sprintf("Welcome to %s!", appName)
	body := fmt.Sprintf(`Hi %s,

Your account is ready. Ask your first question or browse what others are asking:
%s

Follow a few tags to fill your subscription feed.

Best,
The %s Team`, name, feedURL, appName)

	return subject, body
}
