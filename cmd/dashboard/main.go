package main

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type server struct {
	portalURL  string
	httpClient *http.Client
	tpl        *template.Template
}

type actionResult struct {
	Action  string
	Success bool
	Status  int
	Body    string
	Error   string
}

type domainState struct {
	DomainID   string
	Success    bool
	Error      string
	Subdomains []string
	Records    []portalRecord
}

type portalRecord struct {
	Name string `json:"name"`
	Data string `json:"data"`
	Type string `json:"type"`
}

type pageData struct {
	PortalURL string
	Results   []actionResult
	State     *domainState
	Message   string
	Now       string
}

func main() {
	listen := envOrDefault("DASHBOARD_LISTEN", ":8090")
	portalURL := strings.TrimRight(envOrDefault("PORTAL_URL", "http://127.0.0.1:8080"), "/")

	tpl, err := template.New("index").Parse(indexHTML)
	if err != nil {
		log.Fatalf("failed to parse template: %v", err)
	}

	s := &server{
		portalURL: portalURL,
		httpClient: &http.Client{
			Timeout: 4 * time.Second,
		},
		tpl: tpl,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/actions/create-domain", s.handleCreateDomain)
	mux.HandleFunc("/actions/domain-state", s.handleDomainState)
	mux.HandleFunc("/actions/record-update", s.handleRecordUpdate)
	mux.HandleFunc("/actions/record-delete", s.handleRecordDelete)

	log.Printf("dashboard listening on %s (portal %s)", listen, portalURL)
	if err := http.ListenAndServe(listen, mux); err != nil {
		log.Fatalf("dashboard server failed: %v", err)
	}
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	msg := strings.TrimSpace(r.URL.Query().Get("msg"))
	s.render(w, pageData{Message: msg})
}

func (s *server) handleCreateDomain(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	name := strings.TrimSpace(r.FormValue("name"))
	userID := strings.TrimSpace(r.FormValue("user_id"))
	userToken := strings.TrimSpace(r.FormValue("user_token"))
	if name == "" || userID == "" || userToken == "" {
		s.render(w, pageData{Results: []actionResult{{Action: "create-domain", Error: "name, user_id and user_token are required"}}})
		return
	}

	q := url.Values{}
	q.Set("name", name)
	q.Set("user_id", userID)
	q.Set("user_token", userToken)

	res := s.callPortal(http.MethodPost, "/internal/create-domain?"+q.Encode())
	s.render(w, pageData{Results: []actionResult{res}})
}

func (s *server) handleDomainState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	domainID := strings.TrimSpace(r.FormValue("domain_id"))
	if domainID == "" {
		s.render(w, pageData{Results: []actionResult{{Action: "domain-state", Error: "domain_id is required"}}})
		return
	}

	st := &domainState{DomainID: domainID}

	var info struct {
		Subdomains []string `json:"subdomains"`
	}
	if err := s.fetchJSON("/api/v1/domain-info/"+url.PathEscape(domainID), &info); err != nil {
		st.Error = "domain-info fetch failed: " + err.Error()
		s.render(w, pageData{State: st})
		return
	}
	st.Subdomains = info.Subdomains

	var recs struct {
		Records []portalRecord `json:"records"`
	}
	if err := s.fetchJSON("/api/v1/list-records/"+url.PathEscape(domainID), &recs); err != nil {
		st.Error = "list-records fetch failed: " + err.Error()
		s.render(w, pageData{State: st})
		return
	}
	st.Records = recs.Records
	st.Success = true

	s.render(w, pageData{State: st, Message: "Action: domain-state"})
}

func (s *server) handleRecordUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	domainID := strings.TrimSpace(r.FormValue("domain_id"))
	name := strings.TrimSpace(r.FormValue("name"))
	recordType := strings.TrimSpace(r.FormValue("type"))
	data := r.FormValue("data")
	if domainID == "" || name == "" || recordType == "" || strings.TrimSpace(data) == "" {
		s.render(w, pageData{Results: []actionResult{{Action: "record-update", Error: "domain_id, name, type and data are required"}}})
		return
	}

	path := fmt.Sprintf("/api/v1/update-records/%s/%s/%s?data=%s",
		url.PathEscape(domainID), url.PathEscape(name), url.PathEscape(recordType), url.QueryEscape(data))
	res := s.callPortal(http.MethodPost, path)
	s.render(w, pageData{Results: []actionResult{res}})
}

func (s *server) handleRecordDelete(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	domainID := strings.TrimSpace(r.FormValue("domain_id"))
	name := strings.TrimSpace(r.FormValue("name"))
	recordType := strings.TrimSpace(r.FormValue("type"))
	if domainID == "" || name == "" || recordType == "" {
		s.render(w, pageData{Results: []actionResult{{Action: "record-delete", Error: "domain_id, name and type are required"}}})
		return
	}

	path := fmt.Sprintf("/api/v1/delete-records/%s/%s/%s",
		url.PathEscape(domainID), url.PathEscape(name), url.PathEscape(recordType))
	res := s.callPortal(http.MethodPost, path)
	s.render(w, pageData{Results: []actionResult{res}})
}

func (s *server) callPortal(method, path string) actionResult {
	res := actionResult{Action: method + " " + path}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, s.portalURL+path, nil)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	res.Status = resp.StatusCode
	res.Body = strings.TrimSpace(string(body))
	res.Success = resp.StatusCode >= 200 && resp.StatusCode < 300
	if !res.Success && res.Body == "" {
		res.Error = "non-success status"
	}

	return res
}

func (s *server) fetchJSON(path string, out any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.portalURL+path, nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	return json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(out)
}

func (s *server) render(w http.ResponseWriter, data pageData) {
	data.PortalURL = s.portalURL
	data.Now = time.Now().UTC().Format(time.RFC3339)
	if err := s.tpl.Execute(w, data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Subdomain Portal Console</title>
  <style>
    :root { --bg:#f5f7fa; --card:#fff; --txt:#1f2937; --muted:#6b7280; --accent:#1d4ed8; --ok:#166534; --bad:#b91c1c; }
    * { box-sizing:border-box; }
    body { margin:0; font-family: ui-sans-serif,system-ui,-apple-system,Segoe UI,Roboto,Arial; color:var(--txt); background:var(--bg); }
    .wrap { max-width:1100px; margin:0 auto; padding:20px; }
    .grid { display:grid; gap:16px; grid-template-columns: repeat(auto-fit,minmax(320px,1fr)); }
    .card { background:var(--card); border-radius:12px; padding:16px; box-shadow:0 1px 6px rgba(0,0,0,.07); }
    h1,h2 { margin:0 0 10px; }
    h1 { font-size:24px; }
    h2 { font-size:18px; }
    label { display:block; font-size:13px; margin:8px 0 4px; color:var(--muted); }
    input,select,textarea,button { width:100%; padding:10px; border-radius:8px; border:1px solid #d1d5db; }
    button { background:var(--accent); border:none; color:white; font-weight:600; margin-top:10px; cursor:pointer; }
    table { width:100%; border-collapse:collapse; font-size:13px; }
    th,td { padding:8px; border-bottom:1px solid #e5e7eb; text-align:left; vertical-align:top; }
    .status-ok { color:var(--ok); font-weight:600; }
    .status-bad { color:var(--bad); font-weight:600; }
    .mono { font-family: ui-monospace,SFMono-Regular,Menlo,Consolas,monospace; white-space:pre-wrap; }
    .small { color:var(--muted); font-size:12px; }
  </style>
</head>
<body>
  <div class="wrap">
    <h1>Subdomain Portal Console</h1>
    <p class="small">Portal: <span class="mono">{{.PortalURL}}</span> | Time: {{.Now}}</p>
    {{if .Message}}<p><strong>{{.Message}}</strong></p>{{end}}

    <div class="grid">
      <section class="card">
        <h2>Provision Subdomain</h2>
        <form method="post" action="/actions/create-domain">
          <label>Base subdomain</label><input name="name" placeholder="mylab" required>
          <label>User ID</label><input name="user_id" placeholder="0123456789" required>
          <label>User token</label><input name="user_token" placeholder="session token" required>
          <button type="submit">Create Domain</button>
        </form>
      </section>

      <section class="card">
        <h2>Inspect Domain</h2>
        <form method="post" action="/actions/domain-state">
          <label>Domain ID</label><input name="domain_id" placeholder="document id" required>
          <button type="submit">Fetch Subdomains &amp; Records</button>
        </form>
      </section>

      <section class="card">
        <h2>Update Record</h2>
        <form method="post" action="/actions/record-update">
          <label>Domain ID</label><input name="domain_id" required>
          <label>Name</label><input name="name" placeholder="www.mylab" required>
          <label>Type</label>
          <select name="type">
            <option>a</option><option>aaaa</option><option>cname</option><option>caa</option>
            <option>txt</option><option>mx</option><option>ns</option><option>spf</option>
            <option>srv</option><option>sshfp</option>
          </select>
          <label>Data (one value per line)</label><textarea name="data" rows="3" required></textarea>
          <button type="submit">Upsert Record</button>
        </form>
      </section>

      <section class="card">
        <h2>Delete Record</h2>
        <form method="post" action="/actions/record-delete">
          <label>Domain ID</label><input name="domain_id" required>
          <label>Name</label><input name="name" placeholder="www.mylab" required>
          <label>Type</label>
          <select name="type">
            <option>a</option><option>aaaa</option><option>cname</option><option>caa</option>
            <option>txt</option><option>mx</option><option>ns</option><option>spf</option>
            <option>srv</option><option>sshfp</option>
          </select>
          <button type="submit">Delete Record</button>
        </form>
      </section>
    </div>

    {{if .Results}}
    <section class="card" style="margin-top:16px;">
      <h2>Action Results</h2>
      <table>
        <thead><tr><th>Action</th><th>Status</th><th>Body / Error</th></tr></thead>
        <tbody>
          {{range .Results}}
          <tr>
            <td class="mono">{{.Action}}</td>
            <td>{{if .Success}}<span class="status-ok">OK {{.Status}}</span>{{else}}<span class="status-bad">FAIL {{.Status}}</span>{{end}}</td>
            <td class="mono">{{if .Error}}{{.Error}}{{else}}{{.Body}}{{end}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
    </section>
    {{end}}

    {{if .State}}
    <section class="card" style="margin-top:16px;">
      <h2>Domain {{.State.DomainID}}</h2>
      {{if .State.Success}}
        <div><strong>Base subdomains</strong></div>
        <p class="mono">{{range $i, $s := .State.Subdomains}}{{if $i}}, {{end}}{{$s}}{{end}}</p>
        <div><strong>Records</strong></div>
        <table>
          <thead><tr><th>Name</th><th>Type</th><th>Data</th></tr></thead>
          <tbody>
            {{range .State.Records}}
            <tr><td class="mono">{{.Name}}</td><td>{{.Type}}</td><td class="mono">{{.Data}}</td></tr>
            {{end}}
          </tbody>
        </table>
      {{else}}
        <div class="status-bad">FAILED</div>
        <div class="mono">{{.State.Error}}</div>
      {{end}}
    </section>
    {{end}}
  </div>
</body>
</html>`
