package email

import (
	"bytes"
	"fmt"
	"html/template"

	"guestgate/internal/domain"
)

var organizerAssignmentHTML = template.Must(template.New("organizer_assignment").Parse(`
<p>Hi,</p>
<p>{{.ManagerName}} added you as an organizer for <strong>{{.EventName}}</strong>.</p>
<p>Log in to see the guest list and start checking guests in at the door.</p>
`))

func renderOrganizerAssignment(data *domain.OrganizerAssignmentEmailData) (subject, html, text string) {
	subject = fmt.Sprintf("You are an organizer for %s", data.EventName)
	var buf bytes.Buffer
	if err := organizerAssignmentHTML.Execute(&buf, data); err == nil {
		html = buf.String()
	}
	text = fmt.Sprintf("%s added you as an organizer for %s. Log in to see the guest list and start checking guests in at the door.", data.ManagerName, data.EventName)
	return subject, html, text
}
