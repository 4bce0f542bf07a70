package email

import (
	"bytes"
	"fmt"
	"html/template"
)

var layout = template.Must(template.New("layout").Parse(`<!doctype html>
<html lang="sv"><body style="font-family:Arial,sans-serif;color:#1f2937">
<h2>{{.Heading}}</h2>
{{range .Paragraphs}}<p>{{.}}</p>{{end}}
{{if .Link}}<p><a href="{{.Link}}" style="background:#2563eb;color:#fff;padding:10px 16px;border-radius:6px;text-decoration:none">{{.LinkText}}</a></p>{{end}}
<p style="color:#6b7280;font-size:12px">Bokför.com</p>
</body></html>`))

type page struct {
	Heading    string
	Paragraphs []string
	Link       string
	LinkText   string
}

func render(p page) string {
	var buf bytes.Buffer
	_ = layout.Execute(&buf, p)
	return buf.String()
}

func Verification(to, link string) Message {
	return Message{
		Kind:    "verification",
		To:      []string{to},
		Subject: "Verifiera din e-postadress",
		HTML: render(page{
			Heading:    "Välkommen till Bokför.com",
			Paragraphs: []string{"Klicka på knappen nedan för att verifiera din e-postadress. Länken gäller i 24 timmar."},
			Link:       link,
			LinkText:   "Verifiera e-post",
		}),
	}
}

func PasswordReset(to, link string) Message {
	return Message{
		Kind:    "password_reset",
		To:      []string{to},
		Subject: "Återställ ditt lösenord",
		HTML: render(page{
			Heading:    "Återställ lösenord",
			Paragraphs: []string{"Vi har fått en begäran om att återställa ditt lösenord. Länken gäller i en timme.", "Om du inte har begärt detta kan du ignorera meddelandet."},
			Link:       link,
			LinkText:   "Välj nytt lösenord",
		}),
	}
}

func Invoice(to, replyTo, company, number string, pdf []byte) Message {
	return Message{
		Kind:    "invoice",
		To:      []string{to},
		ReplyTo: replyTo,
		Subject: fmt.Sprintf("Faktura %s från %s", number, company),
		HTML: render(page{
			Heading:    fmt.Sprintf("Faktura %s", number),
			Paragraphs: []string{fmt.Sprintf("Hej! Bifogat finns faktura %s från %s.", number, company)},
		}),
		Attachments: []Attachment{{Filename: fmt.Sprintf("Faktura-%s.pdf", number), Content: pdf}},
	}
}

func SalarySlip(to, company, period string, pdf []byte) Message {
	return Message{
		Kind:    "salary_slip",
		To:      []string{to},
		Subject: fmt.Sprintf("Lönespecifikation %s", period),
		HTML: render(page{
			Heading:    fmt.Sprintf("Lönespecifikation %s", period),
			Paragraphs: []string{fmt.Sprintf("Bifogat finns din lönespecifikation för %s från %s.", period, company)},
		}),
		Attachments: []Attachment{{Filename: fmt.Sprintf("Lonespec-%s.pdf", period), Content: pdf}},
	}
}

func Feedback(to, fromUser, message string) Message {
	return Message{
		Kind:    "feedback",
		To:      []string{to},
		ReplyTo: fromUser,
		Subject: "Feedback från " + fromUser,
		Text:    message,
		HTML: render(page{
			Heading:    "Ny feedback",
			Paragraphs: []string{"Från: " + fromUser, message},
		}),
	}
}
