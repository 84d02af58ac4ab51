package service

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"
	"time"

	"github.com/skinerbold/lifeplan/internal/model"
)

// categoryLabels maps the fixed category keys to their display names,
// in presentation order.
var categoryLabels = map[string]string{
	model.CategoryPhysical:  "Físico",
	model.CategoryMental:    "Mental",
	model.CategorySocial:    "Social",
	model.CategoryEmotional: "Emocional",
	model.CategorySpiritual: "Espiritual",
	model.CategoryCharacter: "Caráter",
}

// ReportService renders the downloadable self-contained HTML report
// for a finished project.
type ReportService struct {
	tmpl *template.Template
}

func NewReportService() *ReportService {
	tmpl := template.New("report").Funcs(template.FuncMap{
		"yearNumber": func(i int) int { return i + 1 },
	})
	return &ReportService{
		tmpl: template.Must(tmpl.Parse(reportTemplate)),
	}
}

type reportSection struct {
	Label  string
	Vision string
	Goals  []model.GoalDetail
}

type reportData struct {
	Name     string
	Date     string
	Sections []reportSection
}

// Render produces the full report document. Goals must have been
// generated; the vision sections mirror the live snapshot verbatim.
func (s *ReportService) Render(project *model.Project) ([]byte, error) {
	if project.GeneratedGoals == nil {
		return nil, ErrGoalsNotGenerated
	}

	data := reportData{
		Name: project.VisionData.Name,
		Date: time.Now().Format("02/01/2006"),
	}
	for _, category := range model.Categories {
		data.Sections = append(data.Sections, reportSection{
			Label:  categoryLabels[category],
			Vision: project.VisionData.Field(category),
			Goals:  project.GeneratedGoals.Category(category),
		})
	}

	var buf bytes.Buffer
	err := s.tmpl.Execute(&buf, data)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	return buf.Bytes(), nil
}

var filenameSpaces = regexp.MustCompile(`\s+`)

// Filename derives the download name from the user's name, lower-cased
// with whitespace runs collapsed to dashes.
func (s *ReportService) Filename(name string) string {
	slug := filenameSpaces.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
	return fmt.Sprintf("projeto-de-vida-%s.html", slug)
}

const reportTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Projeto de Vida - {{.Name}}</title>
    <style>
        body { font-family: 'Segoe UI', sans-serif; line-height: 1.6; max-width: 800px; margin: 0 auto; padding: 20px; }
        h1 { color: #d35d3a; text-align: center; border-bottom: 3px solid #d35d3a; padding-bottom: 10px; }
        h2 { color: #c4472f; margin-top: 30px; }
        .section { margin-bottom: 25px; padding: 15px; background: #faf7f2; border-left: 4px solid #d35d3a; }
        .goals { display: grid; grid-template-columns: repeat(auto-fit, minmax(250px, 1fr)); gap: 15px; }
        .goal-card { background: white; padding: 15px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .year { font-weight: bold; color: #d35d3a; }
        .footer { text-align: center; margin-top: 40px; color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <h1>Projeto de Vida Personalizado</h1>
    <p style="text-align: center; font-size: 1.1em;"><strong>{{.Name}}</strong> - {{.Date}}</p>

    <div class="section">
        <h2>🎯 Suas Visões para 2030</h2>
        <div style="display: grid; grid-template-columns: repeat(auto-fit, minmax(300px, 1fr)); gap: 15px;">
            {{- range .Sections}}
            <div><strong>{{.Label}}:</strong> {{.Vision}}</div>
            {{- end}}
        </div>
    </div>

    {{- range .Sections}}
    <div class="section">
        <h2>{{.Label}}</h2>
        <div class="goals">
            {{- range $i, $goal := .Goals}}
            <div class="goal-card">
                <div class="year">Ano {{yearNumber $i}}</div>
                <p><strong>{{$goal.Goal}}</strong></p>
                <p><em>Prazo:</em> {{$goal.Timeline}}</p>
                <p><em>Ações:</em></p>
                <ul>
                    {{- range $goal.Actions}}
                    <li>{{.}}</li>
                    {{- end}}
                </ul>
                <p><em>Recursos:</em></p>
                <ul>
                    {{- range $goal.Resources}}
                    <li>{{.}}</li>
                    {{- end}}
                </ul>
            </div>
            {{- end}}
        </div>
    </div>
    {{- end}}

    <div class="footer">
        <p>Gerado em {{.Date}} · Produzido por @SkinerBold, inspirado pela Aninha</p>
    </div>
</body>
</html>
`
