package web

import (
	"html/template"

	"github.com/shouni/insta-caption-kit/pkg/domain"
)

// PageView は1回の表示に必要な値だけを持つ短命なビューモデルです。
// ハンドラが生成してテンプレートに渡し、次のリクエストでは作り直されます。
type PageView struct {
	Vibe       string
	Caption    *domain.Caption
	PreviewURI template.URL
	Notice     *Notice
	RequestID  string
}

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>InstaCaptionAI</title>
<style>
body { background-color: #0b0f1a; color: #ffffff; font-family: sans-serif; max-width: 760px; margin: 0 auto; padding: 1rem; }
.title-text { font-size: 2.6rem; font-weight: bold; text-align: center; background: linear-gradient(90deg, #f81ce5, #7928ca); -webkit-background-clip: text; -webkit-text-fill-color: transparent; }
.caption-box { background-color: #151525; padding: 1.2rem; border-radius: 12px; box-shadow: 0 0 15px #f81ce5, 0 0 25px #7928ca; font-size: 1.1rem; margin-top: 1rem; white-space: pre-wrap; }
.warning { color: #ffd166; }
.error { color: #ff6b6b; }
img { border-radius: 15px; max-width: 500px; }
</style>
</head>
<body>
<div class="title-text">InstaCaptionAI ✨</div>
<form method="post" action="/caption" enctype="multipart/form-data">
  <p><label>📸 Upload your Instagram image <input type="file" name="image" accept="image/jpeg,image/png"></label></p>
  <p><label>💬 Describe your vibe <input type="text" name="vibe" value="{{.Vibe}}" placeholder="aesthetic sunset, cozy mood"></label></p>
  <p><button type="submit">🚀 Generate Caption</button></p>
</form>
{{with .Notice}}
<p class="{{.Level}}">{{.Message}}</p>
{{if .Raw}}<details><summary>Raw response</summary><pre>{{.Raw}}</pre></details>{{end}}
{{end}}
{{with .Caption}}
<h3>✨ Your AI-Generated Caption</h3>
{{if .Options}}{{range .Options}}<div class="caption-box"><strong>{{.Label}}</strong>
{{.Text}}</div>{{end}}{{else}}<div class="caption-box">{{.Text}}</div>{{end}}
{{end}}
{{if .PreviewURI}}
<h3>🌅 Image Preview</h3>
<img src="{{.PreviewURI}}" alt="preview">
{{end}}
</body>
</html>
`))
