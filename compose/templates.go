package compose

import (
	"fmt"
	"text/template"
)

var funcs = template.FuncMap{
	"specified": Specified,
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Parse(text))
}

// Variant is one template layout. The layout is picked from which free-text
// columns an enquiry fills in.
type Variant struct {
	Name       string
	subject    *template.Template
	paragraphs []*template.Template
}

var (
	greeting = mustParse("greeting", `Dear {{.Supplier}},`)
	intro    = mustParse("intro", `I hope this message finds you well. I'm part of the team at {{.Company.Name}}.{{if .Company.Description}} {{.Company.Description}}{{end}}`)
	signoff  = mustParse("signoff", "Warm regards,\n{{if .Company.Agent}}{{.Company.Agent}}\n{{end}}{{.Company.Name}}")

	closing = mustParse("closing", `{{if .Trip.WantsQuote -}}
We would appreciate it if you could share a detailed quotation for this trip, including accommodation options, activities (if any) and a price breakdown, along with availability at your earliest convenience.
{{- else -}}
We are not requesting a quotation or pricing at this stage. Could you please confirm availability and share any details we should know for this trip?
{{- end}}`)

	children = mustParse("children", `{{if gt .Trip.Children 0}}Would it be possible to add extra bedding for the children{{if .Trip.ChildrenAges}} (ages {{.Trip.ChildrenAges}}){{end}} in the specified accommodation?{{end}}`)
	activity = mustParse("activities", `{{if specified .Trip.Activities}}The group is also interested in the following activities: {{.Trip.Activities}}.{{end}}`)
	query    = mustParse("query", `{{if specified .Trip.Query}}The customer also asked: {{.Trip.Query}}{{end}}`)
)

var (
	RoomSpecific = Variant{
		Name:    "room_specific",
		subject: mustParse("room_specific.subject", `Question about {{.Trip.RoomType}} at {{.Trip.Destination}}`),
		paragraphs: []*template.Template{
			greeting, intro,
			mustParse("room_specific.body", "One of our members has an upcoming trip to {{.Trip.Destination}} for which we have shortlisted your property.\nWe had a question about the room {{.Trip.RoomType}}:\n{{.Trip.Question}}"),
			mustParse("room_specific.close", `Awaiting your reply.`),
			signoff,
		},
	}

	FamilyTrip = Variant{
		Name:    "family_trip",
		subject: mustParse("family_trip.subject", `Family Trip Inquiry for {{.Trip.Destination}} - {{.Trip.Pax}} PAX`),
		paragraphs: []*template.Template{
			greeting, intro,
			mustParse("family_trip.body", `We are assisting a client planning a family trip to {{.Trip.Destination}} and would like to get some additional information to advise them appropriately.`),
			mustParse("family_trip.group", "Client group:\n{{.Trip.PaxLine}}{{if specified .Trip.Rooms}} in {{.Trip.Rooms}}{{end}}"),
			mustParse("family_trip.questions", "Questions:\n{{.Trip.Questions}}"),
			children, closing, signoff,
		},
	}

	GroupQuotation = Variant{
		Name:    "group_quotation",
		subject: mustParse("group_quotation.subject", `Quotation Request for Group Stay at {{.Trip.Destination}}`),
		paragraphs: []*template.Template{
			greeting, intro,
			mustParse("group_quotation.body", `A client of ours is planning a trip to {{.Trip.Destination}}. They are a group of {{.Trip.PaxLine}} and are planning to travel from {{.Trip.Checkin}} to {{.Trip.Checkout}} ({{.Trip.Nights}} nights).`),
			mustParse("group_quotation.options", "We are checking these options for them:\n{{.Trip.Options}}"),
			mustParse("group_quotation.close", `Could you please help us with agent quotations for these options?`),
			signoff,
		},
	}

	TripQuery = Variant{
		Name:    "trip_query",
		subject: mustParse("trip_query.subject", `Trip Query for {{.Trip.Destination}} - {{.Trip.Pax}} PAX`),
		paragraphs: []*template.Template{
			greeting, intro,
			mustParse("trip_query.body", `We are planning a trip for a group of {{.Trip.PaxLine}} to {{.Trip.Destination}}{{if .Trip.Country}}, {{.Trip.Country}}{{end}}.`),
			mustParse("trip_query.details", `Here are the trip details:
{{- if specified .Trip.LeadName}}
• Lead Passenger: {{.Trip.LeadName}}{{end}}
• Check-in Date: {{.Trip.Checkin}}
• Check-out Date: {{.Trip.Checkout}}
• Number of Nights: {{.Trip.Nights}}
{{- if specified .Trip.Accommodation}}
• Preferred Accommodation Type: {{.Trip.Accommodation}}{{end}}
{{- if specified .Trip.Rooms}}
• Room Configuration: {{.Trip.Rooms}}{{end}}`),
			children, activity, query, closing, signoff,
		},
	}
)

// VariantFor picks the template layout for a trip.
func VariantFor(t Trip) Variant {
	switch {
	case t.Question != "":
		return RoomSpecific
	case t.Questions != "":
		return FamilyTrip
	case t.Options != "":
		return GroupQuotation
	default:
		return TripQuery
	}
}

var promptTmpl = mustParse("prompt", `You are {{if .Company.Agent}}{{.Company.Agent}}, {{end}}a Travel Consultant at {{.Company.Name}}. Write a friendly and professional email to a travel supplier named {{.Supplier}}. This is for a customer trip inquiry. You must not use Markdown or asterisks for formatting; use HTML tags like <b> for emphasis instead.

Include the following trip details naturally in the email:
- Country: {{.Trip.Country}}
- Destination: {{.Trip.Destination}}
{{- if specified .Trip.LeadName}}
- Passenger Name: {{.Trip.LeadName}}{{end}}
- Number of Adults: {{.Trip.Adults}}
{{- if gt .Trip.Children 0}}
- Number of Children: {{.Trip.Children}}{{end}}
{{- if specified .Trip.Accommodation}}
- Accommodation Type: {{.Trip.Accommodation}}{{end}}
{{- if specified .Trip.Checkin}}
- Check-in Date: {{.Trip.Checkin}}{{end}}
{{- if specified .Trip.Checkout}}
- Check-out Date: {{.Trip.Checkout}}{{end}}
{{- if specified .Trip.Nights}}
- Number of Nights: {{.Trip.Nights}}{{end}}

{{if specified .Trip.Activities}}Mention these activities: {{.Trip.Activities}}{{else}}Do not mention activities at all.{{end}}
{{if specified .Trip.Query}}Highlight this customer query: <b>{{.Trip.Query}}</b>{{else}}Do not mention any customer query.{{end}}
{{if gt .Trip.Children 0}}Ask whether extra bedding for the children is possible.{{else}}Do not mention children.{{end}}
{{if .Examples}}
Here are some example emails (with formatting):
{{.Examples}}
{{end}}
{{if .Trip.WantsQuote}}Ask the supplier for a detailed quotation for this trip, including accommodation options, activities (if any), and a price breakdown.{{else}}Do not ask the supplier for quotation. Do not ask about money or price breakdown.{{end}}
Now, based on this information, generate an email in HTML format (no Markdown).
`)

// FollowUp renders the scheduled follow-up email sent on a trip's scheduled date.
func FollowUp(supplierName string, company Company, trip Trip) Message {
	lead := ""
	if Specified(trip.LeadName) {
		lead = " for " + trip.LeadName
	}
	subject := fmt.Sprintf("Follow-up: %s trip%s", trip.Destination, lead)
	body := fmt.Sprintf("Dear %s,\n\nI am following up on our earlier enquiry about the trip to %s%s (%s, check-in %s).\nCould you please share an update at your earliest convenience?\n\nWarm regards,\n%s\n",
		supplierName, trip.Destination, lead, trip.PaxLine(), trip.Checkin, signature(company))
	return Message{Subject: subject, Body: body}
}

// Reminder renders the check-in countdown reminder sent to the agent.
func Reminder(name, destination, checkin string) Message {
	return Message{
		Subject: fmt.Sprintf("Reminder: Booking for %s to %s on %s", name, destination, checkin),
		Body:    fmt.Sprintf("%s is going to %s on %s. Please confirm whether you have done their booking or not and update it.", name, destination, checkin),
	}
}

func signature(c Company) string {
	if c.Agent != "" {
		return c.Agent + "\n" + c.Name
	}
	return c.Name
}
