package backend

import (
	"bytes"
	"html/template"
	"time"
)

const (
	emptyListPlaceholder = "No notes saved yet."
	displayTimeLayout    = "Jan 2, 2006, 3:04:05 PM"
)

// ノート一覧の1件分の表示内容
type NoteCard struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	Coordinates string `json:"coordinates"`
	Timestamp   string `json:"timestamp"`
	Draggable   bool   `json:"draggable"`
}

// ノート一覧全体の表示内容
type NoteListView struct {
	Empty       bool       `json:"empty"`
	Placeholder string     `json:"placeholder,omitempty"`
	Cards       []NoteCard `json:"cards"`
	HTML        string     `json:"html"`
}

// ノート一覧のテンプレート
// 操作ボタンはインラインのハンドラを持たず、data 属性の id でフロントエンドが結び付ける
var noteListTemplate = template.Must(template.New("notes").Parse(`
{{- if .Empty -}}
<p class="notes-empty">{{.Placeholder}}</p>
{{- else -}}
{{- range .Cards }}
<div class="note-card" data-note-id="{{.ID}}"{{if .Draggable}} draggable="true"{{end}}>
  <h3>{{.Title}}</h3>
  <p>{{.Content}}</p>
  <small>📍 {{.Coordinates}}</small><br/>
  <small>🕒 {{.Timestamp}}</small>
  <div class="note-card-buttons">
    <button type="button" data-action="copy" data-note-id="{{.ID}}">Copy</button>
    <button type="button" data-action="edit" data-note-id="{{.ID}}">Edit</button>
    <button type="button" data-action="delete" data-note-id="{{.ID}}">Delete</button>
  </div>
</div>
{{- end }}
{{- end }}
`))

// BuildNoteListView はノートの並びを表示用のデータに変換する
func BuildNoteListView(notes []Note, loc *time.Location) NoteListView {
	if loc == nil {
		loc = time.Local
	}
	if len(notes) == 0 {
		return NoteListView{Empty: true, Placeholder: emptyListPlaceholder, Cards: []NoteCard{}}
	}

	cards := make([]NoteCard, 0, len(notes))
	for _, note := range notes {
		cards = append(cards, NoteCard{
			ID:          note.ID,
			Title:       note.Title,
			Content:     note.Content,
			Coordinates: note.Location.String(),
			Timestamp:   formatDisplayTime(note.Timestamp, loc),
			Draggable:   true,
		})
	}
	return NoteListView{Cards: cards}
}

// RenderHTML は表示データをエスケープ済みの HTML にする
func RenderHTML(view NoteListView) (string, error) {
	var buf bytes.Buffer
	if err := noteListTemplate.Execute(&buf, view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderNoteList は表示データと HTML をまとめて生成する
func RenderNoteList(notes []Note, loc *time.Location) (NoteListView, error) {
	view := BuildNoteListView(notes, loc)
	html, err := RenderHTML(view)
	if err != nil {
		return view, err
	}
	view.HTML = html
	return view, nil
}

// formatDisplayTime は RFC3339 の時刻を人が読める形式にする。解釈できなければそのまま返す
func formatDisplayTime(timestamp string, loc *time.Location) string {
	t, err := time.Parse(time.RFC3339, timestamp)
	if err != nil {
		return timestamp
	}
	return t.In(loc).Format(displayTimeLayout)
}
