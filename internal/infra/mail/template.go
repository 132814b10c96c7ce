package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"quiz-conductor/internal/domain"
)

var invitationTmpl = template.Must(template.New("invitation").Parse(`<html><body>
<p>Hello,</p>
<p>You are invited to take a quiz on '<b>{{.Topic}}</b>'.</p>
<p>Click the link:</p>
<p><a href="{{.Link}}">Start Quiz</a></p>
<p>Or copy this URL:</p>
<p>{{.Link}}</p>
<p>Good luck!</p>
</body></html>`))

// RenderInvitation builds the HTML body of an invitation email.
func RenderInvitation(invite domain.Invitation) (string, error) {
	var buf bytes.Buffer
	if err := invitationTmpl.Execute(&buf, invite); err != nil {
		return "", fmt.Errorf("render invitation: %w", err)
	}
	return buf.String(), nil
}
