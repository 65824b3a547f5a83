package templates

import (
	"fmt"
	"html"
)

// RenderVerificationEmail generates the branded HTML body for the account
// verification email. The link is embedded both as a button and as a bare URL
// for clients that strip styling.
func RenderVerificationEmail(firstName, lastName, verificationURL string) string {
	safeName := html.EscapeString(firstName)
	if safeName == "" {
		safeName = "there"
	}
	safeURL := html.EscapeString(verificationURL)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Verify your Raahi account</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f6f8; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #0f9d58 0%%, #1a73e8 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #333a45; line-height: 1.6; font-size: 15px; }
    .button { display: inline-block; margin: 24px 0; padding: 14px 32px; background-color: #0f9d58; color: #ffffff !important; text-decoration: none; border-radius: 6px; font-weight: 600; }
    .link { word-break: break-all; color: #1a73e8; font-size: 13px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
    .footer a { color: #1a73e8; text-decoration: none; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Welcome to Raahi</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p>Thanks for signing up for Raahi, the carpooling community for your campus. Confirm your email address to start finding and offering rides.</p>
      <p style="text-align: center;"><a class="button" href="%s">Verify my email</a></p>
      <p>If the button does not work, copy this link into your browser:</p>
      <p class="link">%s</p>
      <p>The link expires in 24 hours. If you did not create a Raahi account, you can ignore this email.</p>
    </div>
    <div class="footer">
      <p>&copy; Raahi Carpool | <a href="https://www.raahiforwork.com">raahiforwork.com</a></p>
      <p><a href="https://www.raahiforwork.com/contact-us">Contact Support</a></p>
    </div>
  </div>
</body>
</html>`, safeName, safeURL, safeURL)
}

// VerificationText is the plain-text fallback for the verification email
func VerificationText(firstName, verificationURL string) string {
	name := firstName
	if name == "" {
		name = "there"
	}
	return fmt.Sprintf("Hi %s,\n\nThanks for signing up for Raahi. Confirm your email address by opening this link:\n\n%s\n\nThe link expires in 24 hours. If you did not create a Raahi account, you can ignore this email.\n\nThe Raahi team", name, verificationURL)
}
