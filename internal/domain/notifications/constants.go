package notifications

const (
	EventLeaveSubmitted     = "leave.submitted"
	EventLeaveStatusChanged = "leave.status_changed"
	EventLeaveDeleted       = "leave.deleted"
	EventUserCreated        = "user.created"
)

const (
	TemplateLeaveRequest  = "leave_request"
	TemplateLeaveStatus   = "leave_status"
	TemplateWelcome       = "welcome"
	TemplatePasswordReset = "password_reset"
)

const templates = `
{{define "leave_request.subject"}}New leave request from {{.Owner.FirstName}} {{.Owner.LastName}}{{end}}
{{define "leave_request.text"}}Hello {{.Recipient.FirstName}},

{{.Owner.FirstName}} {{.Owner.LastName}} ({{.Owner.EmployeeID}}) requested {{.Request.LeaveType | toString | lower | replace "_" " "}} leave.

From:   {{dateInZone "Mon, Jan 2 2006" .Request.From "UTC"}}
To:     {{dateInZone "Mon, Jan 2 2006" .Request.To "UTC"}}
Days:   {{.Request.Days}}
Reason: {{.Request.Reason | trunc 500}}

Review it at {{.AppURL}}/approvals
{{end}}
{{define "leave_status.subject"}}Your leave request was {{.Request.Status | toString | lower}}{{end}}
{{define "leave_status.text"}}Hello {{.Recipient.FirstName}},

Your {{.Request.LeaveType | toString | lower | replace "_" " "}} leave from {{dateInZone "Jan 2, 2006" .Request.From "UTC"}} to {{dateInZone "Jan 2, 2006" .Request.To "UTC"}} ({{.Request.Days}} {{if eq .Request.Days 1}}day{{else}}days{{end}}) is now {{.Request.Status | toString | lower}}.
{{- with .Comment}}

Comment: {{.}}
{{- end}}

{{.AppURL}}/leaves
{{end}}
{{define "welcome.subject"}}Welcome to LeaveStride{{end}}
{{define "welcome.text"}}Hello {{.Recipient.FirstName}},

An account was created for you.

Employee ID: {{.Recipient.EmployeeID}}
Email:       {{.Recipient.Email}}
{{- if .TempPassword}}
Password:    {{.TempPassword}}

Please change your password after signing in.
{{- end}}

Sign in at {{.AppURL}}/login
{{end}}
{{define "password_reset.subject"}}Reset your LeaveStride password{{end}}
{{define "password_reset.text"}}Hello {{.Recipient.FirstName}},

Use the link below to choose a new password. It expires in {{.ExpiresIn | default "1 hour"}}.

{{.Link}}

If you did not ask for this, you can ignore this email.
{{end}}
`
