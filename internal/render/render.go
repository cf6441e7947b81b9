// Package render turns a content record and resolved display options into
// the complete HTML document a screen serves. Rendering is pure string
// construction: the same (content, options) pair always produces the same
// bytes, and it cannot fail. Asset-load failures are surfaced to the viewer
// in-page, never to the caller.
package render

import (
	"html/template"
	"strings"

	"github.com/Brightline-AV/castor/internal/display"
	"github.com/Brightline-AV/castor/internal/model"
)

type pageData struct {
	Title  string
	Body   template.HTML
	Screen string
}

type mediaData struct {
	Name   string
	URL    string
	Video  display.VideoOptions
	Deck   display.DeckOptions
	Inline string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
html, body { margin: 0; padding: 0; width: 100%; height: 100%; background: #000; overflow: hidden; }
.media { width: 100vw; height: 100vh; object-fit: contain; border: 0; display: block; }
.placeholder, .load-error { width: 100vw; height: 100vh; display: flex; flex-direction: column; align-items: center; justify-content: center; color: #888; font-family: sans-serif; text-align: center; }
.load-error { display: none; }
.fallback { color: #ccc; font-family: sans-serif; text-align: center; padding-top: 40vh; }
.fallback a { color: #6cf; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`))

var branchTmpls = template.Must(template.New("branches").Parse(`
{{define "placeholder"}}<div class="placeholder">
<h1>No content assigned</h1>
<p>Assign content to this screen from the dashboard.</p>
</div>{{end}}

{{define "image"}}<img class="media" id="media" src="{{.URL}}" alt="{{.Name}}" onerror="this.style.display='none';document.getElementById('load-error').style.display='flex';">
<div class="load-error" id="load-error">
<h1>Failed to load image</h1>
<p>{{.URL}}</p>
</div>{{end}}

{{define "video"}}<video class="media" id="media"{{if .Video.Autoplay}} autoplay{{end}}{{if .Video.Loop}} loop{{end}}{{if .Video.Controls}} controls{{end}}{{if .Video.Muted}} muted{{end}} playsinline onerror="this.style.display='none';document.getElementById('load-error').style.display='flex';">
<source src="{{.URL}}">
</video>
<div class="load-error" id="load-error">
<h1>Failed to load video</h1>
<p>{{.URL}}</p>
</div>{{end}}

{{define "powerpoint"}}<div class="media" id="deck">
<object class="media" data="{{.URL}}" type="application/vnd.ms-powerpoint">
<div class="fallback">
<p>This presentation cannot be shown in the browser without conversion.</p>
<p><a href="{{.URL}}" download>Download the presentation</a> or <a href="{{.URL}}" target="_blank">open it directly</a>.</p>
</div>
</object>
</div>
<script>
var deckConfig = { autoSlide: {{.Deck.AutoSlide}}, loop: {{.Deck.Loop}} };
var deckFrame = document.querySelector('#deck object');
if (deckConfig.autoSlide > 0 && deckFrame) {
  setInterval(function () {
    if (deckConfig.loop) { deckFrame.data = deckFrame.data; }
  }, deckConfig.autoSlide);
}
</script>{{end}}

{{define "inline"}}<iframe class="media" id="media" srcdoc="{{.Inline}}"></iframe>{{end}}

{{define "frame"}}<iframe class="media" id="media" src="{{.URL}}" allowfullscreen></iframe>{{end}}
`))

// Page renders the standalone document for content with the given options.
// A nil content yields the "no content assigned" placeholder regardless of
// options. Unknown content types fall through to the iframe branch.
func Page(content *model.Content, opts model.DisplayOptions) string {
	if content == nil {
		return document("Castor Screen", execBranch("placeholder", mediaData{}))
	}

	data := mediaData{
		Name:  content.Name,
		URL:   content.URL,
		Video: display.ForVideo(opts),
		Deck:  display.ForDeck(opts),
	}

	var body template.HTML
	switch content.Type {
	case model.ContentImage:
		body = execBranch("image", data)
	case model.ContentVideo:
		body = execBranch("video", data)
	case model.ContentPowerPoint:
		body = execBranch("powerpoint", data)
	case model.ContentHTML:
		if content.HTMLContent != nil && *content.HTMLContent != "" {
			data.Inline = *content.HTMLContent
			body = execBranch("inline", data)
		} else {
			body = execBranch("frame", data)
		}
	default:
		// pdf, google-slides, and anything unrecognized all embed the same way
		body = execBranch("frame", data)
	}

	return document(content.Name, body)
}

func document(title string, body template.HTML) string {
	var sb strings.Builder
	if err := pageTmpl.Execute(&sb, pageData{Title: title, Body: body}); err != nil {
		// static templates over plain structs; exec cannot realistically fail
		return "<!DOCTYPE html><html><body></body></html>"
	}
	return sb.String()
}

func execBranch(name string, data mediaData) template.HTML {
	var sb strings.Builder
	if err := branchTmpls.ExecuteTemplate(&sb, name, data); err != nil {
		return ""
	}
	return template.HTML(sb.String())
}
