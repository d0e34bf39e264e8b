package core

import (
	"bytes"
	htmltmpl "html/template"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"sync"
	texttmpl "text/template"
)

type (
	Attachment struct {
		Content     *bytes.Buffer
		ContentType string
		Filename    string
	}

	EmailMessage struct {
		To          []mail.Address
		Cc          []mail.Address
		Bcc         []mail.Address
		Subject     string
		BodyStr     string // plain text/plain content, bypasses templates
		Attachments []Attachment

		// templated contents
		TemplateName string // without ext
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	// ContextData is the root object every email template executes against.
	ContextData struct {
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// templatePair holds both renditions of one named template; either half may
// be nil when the corresponding file does not exist.
type templatePair struct {
	text *texttmpl.Template
	html *htmltmpl.Template
}

var (
	templates map[string]templatePair
	tmplInit  sync.Once
)

// Render fills TextContent and HTMLContent from BodyStr or from the named
// template pair under assets/templates/email.
func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseTemplates)
	}

	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
	}

	pair, ok := templates[m.TemplateName]
	if m.TemplateName == "" || !ok {
		return nil
	}
	data := ContextData{
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}

	if m.TextContent == "" && pair.text != nil {
		var buff bytes.Buffer
		if err := pair.text.Execute(&buff, data); err != nil {
			return err
		}
		m.TextContent = buff.String()
	}
	if pair.html != nil {
		var buff bytes.Buffer
		if err := pair.html.Execute(&buff, data); err != nil {
			return err
		}
		m.HTMLContent = buff.String()
	}
	return nil
}

// AttachBytes attaches raw content (eg. a generated PDF) to the message.
func (m *EmailMessage) AttachBytes(content []byte, filename string, ct ...string) {
	at := Attachment{
		Content:  bytes.NewBuffer(content),
		Filename: filename,
	}
	if len(ct) > 0 {
		at.ContentType = ct[0]
	} else {
		at.ContentType = http.DetectContentType(content)
	}
	m.Attachments = append(m.Attachments, at)
}

func (m *EmailMessage) Attach(r io.Reader, filename string, ct ...string) error {
	content, err := ioutil.ReadAll(r)
	if err != nil {
		return err
	}
	m.AttachBytes(content, filename, ct...)
	return nil
}

func (m *EmailMessage) AttachFile(path string, contentType ...string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.Attach(f, filepath.Base(path), contentType...)
}

func (m *EmailMessage) HasRecipients() bool  { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool     { return (m.TextContent != "") || (m.HTMLContent != "") }
func (m *EmailMessage) HasAttachments() bool { return len(m.Attachments) > 0 }

// parseTemplates loads every non-partial template under
// assets/templates/email, pairing the .txt and .gohtml files that share a
// base name. Files prefixed with "_" are layout partials.
func parseTemplates() {
	templates = make(map[string]templatePair)

	rp := filepath.Join(Getwd(), "assets", "templates", "email")
	fps, err := filepath.Glob(filepath.Join(rp, "*"))
	if err != nil {
		log.Printf("core.parseTemplates: %v", err)
		return
	}

	strict := Conf.Debug || Conf.TestMode
	for _, fp := range fps {
		fname := filepath.Base(fp)
		ext := filepath.Ext(fname)
		if strings.HasPrefix(fname, "_") {
			continue
		}
		name := strings.TrimSuffix(fname, ext)
		pair := templates[name]

		switch ext {
		case ".txt":
			tmpl, err := texttmpl.ParseFiles(filepath.Join(rp, "_base.txt"), fp)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			pair.text = tmpl
		case ".gohtml":
			tmpl, err := htmltmpl.ParseFiles(filepath.Join(rp, "_base.gohtml"), fp)
			if err != nil {
				log.Printf("core.parseTemplates: %v", err)
				continue
			}
			if strict {
				tmpl = tmpl.Option("missingkey=error")
			}
			pair.html = tmpl
		default:
			continue
		}
		templates[name] = pair
	}
}
