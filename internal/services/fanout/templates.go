package fanout

import (
	"fmt"
	"html"
	"time"

	"github.com/crewnow/crewnow/internal/domain/notify"
)

// Renderer produces the per-event message bodies. Email gets a subject
// plus an HTML body with a plain-text fallback; push gets a title, a
// short message, tag hints and a click target.
type Renderer struct {
	// BaseURL is the public app origin, e.g. https://crew.example.com.
	// Empty omits all links.
	BaseURL string
}

func (r Renderer) link(path string) string {
	if r.BaseURL == "" {
		return ""
	}
	return r.BaseURL + path
}

func (r Renderer) postLink(postID int64) string {
	if r.BaseURL == "" {
		return ""
	}
	return fmt.Sprintf("%s/posts/%d", r.BaseURL, postID)
}

func (r Renderer) Email(ev notify.Event, recipientName string) (subject, htmlBody, text string) {
	switch ev.Kind {
	case notify.MomentStarted:
		subject = "Crew Now Time!"
		cta := r.link("/create")
		htmlBody = r.layout(subject, fmt.Sprintf(`
			<h1>%s</h1>
			<p>Es ist Zeit dein Crew Now für heute zu posten.</p>
			%s
			<p class="muted">Start: %s</p>`,
			html.EscapeString(subject), button(cta, "Jetzt posten"),
			ev.StartAt.Format(time.RFC1123)))
		text = "Crew Now Time! Es ist Zeit dein Crew Now für heute zu posten." + textLink("Jetzt posten", cta)

	case notify.NewPost:
		subject = withActor("Neuer Post", ev.ActorName)
		cta := r.postLink(ev.PostID)
		htmlBody = r.layout(subject, fmt.Sprintf(`
			<h1>%s</h1>
			<p>Jemand hat ein neues Bild gepostet.</p>
			%s`,
			html.EscapeString(subject), button(cta, "Zum Beitrag")))
		text = subject + "." + textLink("Zum Beitrag", cta)

	case notify.CommentCreated:
		subject = withActor("Neuer Kommentar", ev.ActorName)
		cta := r.postLink(ev.PostID)
		htmlBody = r.layout(subject, fmt.Sprintf(`
			<h1>%s</h1>
			<p>Es gibt einen neuen Kommentar.</p>
			%s`,
			html.EscapeString(subject), button(cta, "Ansehen")))
		text = subject + "." + textLink("Ansehen", cta)

	case notify.ReactionCreated:
		subject = withActor("Neue Reaktion", ev.ActorName)
		cta := r.postLink(ev.PostID)
		htmlBody = r.layout(subject, fmt.Sprintf(`
			<h1>%s</h1>
			<p>Dein Feed hat eine neue Reaktion.</p>
			%s`,
			html.EscapeString(subject), button(cta, "Ansehen")))
		text = subject + "." + textLink("Ansehen", cta)

	case notify.CheckInReminder:
		names := ExcludeName(ev.PosterNames, recipientName)
		if len(names) == 0 {
			subject = "Sei der Erste!"
			cta := r.link("/create")
			htmlBody = r.layout(subject, fmt.Sprintf(`
				<h1>%s</h1>
				<p>Noch hat niemand seinen Moment geteilt. Sei der Erste!</p>
				%s`,
				html.EscapeString(subject), button(cta, "Jetzt posten")))
			text = "Sei der Erste! Noch hat niemand seinen Moment geteilt." + textLink("Jetzt posten", cta)
			return subject, htmlBody, text
		}
		verb := "hat"
		if len(names) > 1 {
			verb = "haben"
		}
		subject = "Da passiert was!"
		cta := r.link("/feed")
		htmlBody = r.layout(subject, fmt.Sprintf(`
			<h1>%s</h1>
			<p>Schau mal rein, %s %s etwas in Crew Now gepostet.</p>
			%s`,
			html.EscapeString(subject), html.EscapeString(JoinNames(names)), verb,
			button(cta, "Zum Feed")))
		text = fmt.Sprintf("Da passiert was! %s %s etwas in Crew Now gepostet.", JoinNames(names), verb) + textLink("Zum Feed", cta)
	}
	return subject, htmlBody, text
}

func (r Renderer) Push(ev notify.Event, recipientName string) (title, message string, tags []string, click string) {
	switch ev.Kind {
	case notify.MomentStarted:
		return "Crew Now Time!", "Es ist Zeit dein Crew Now für heute zu posten.",
			[]string{"camera_flash"}, r.link("/create")
	case notify.NewPost:
		return withActor("Neuer Post", ev.ActorName), "Schau dir den neuen Beitrag an.",
			[]string{"frame_with_picture"}, r.postLink(ev.PostID)
	case notify.CommentCreated:
		return withActor("Neuer Kommentar", ev.ActorName), "Es gibt einen neuen Kommentar.",
			[]string{"speech_balloon"}, r.postLink(ev.PostID)
	case notify.ReactionCreated:
		return withActor("Neue Reaktion", ev.ActorName), "Dein Feed hat eine neue Reaktion.",
			[]string{"heart"}, r.postLink(ev.PostID)
	case notify.CheckInReminder:
		names := ExcludeName(ev.PosterNames, recipientName)
		if len(names) == 0 {
			return "Sei der Erste!", "Noch hat niemand seinen Moment geteilt.",
				[]string{"eyes"}, r.link("/create")
		}
		verb := "hat"
		if len(names) > 1 {
			verb = "haben"
		}
		return "Da passiert was!", fmt.Sprintf("%s %s etwas in Crew Now gepostet.", JoinNames(names), verb),
			[]string{"tada"}, r.link("/feed")
	}
	return "", "", nil, ""
}

func withActor(base, actor string) string {
	if actor == "" {
		return base
	}
	return base + " von " + actor
}

func button(url, label string) string {
	if url == "" {
		return ""
	}
	return fmt.Sprintf(`<p><a class="btn" href="%s">%s</a></p>`, url, html.EscapeString(label))
}

func textLink(label, url string) string {
	if url == "" {
		return ""
	}
	return "\n" + label + ": " + url
}

func (r Renderer) layout(title, body string) string {
	settings := "#"
	if r.BaseURL != "" {
		settings = r.BaseURL + "/settings"
	}
	return fmt.Sprintf(`<!doctype html>
<html>
	<head>
		<meta charset="utf-8" />
		<meta name="viewport" content="width=device-width, initial-scale=1" />
		<title>%s</title>
		<style>
			body { font-family: -apple-system, Segoe UI, Roboto, Helvetica, Arial, sans-serif; color: #111827; }
			.container { max-width: 560px; margin: 24px auto; padding: 24px; border: 1px solid #e5e7eb; border-radius: 12px; }
			.btn { display: inline-block; background: #111827; color: white; padding: 10px 16px; border-radius: 8px; text-decoration: none; }
			.muted { color: #6b7280; font-size: 12px; }
		</style>
	</head>
	<body>
		<div class="container">
			%s
			<p class="muted">Du kannst deine Benachrichtigungen hier anpassen: <a href="%s">Einstellungen</a></p>
		</div>
	</body>
</html>`, html.EscapeString(title), body, settings)
}
