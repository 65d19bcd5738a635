package views

import "github.com/a-h/templ"

// page is the shell every full page shares.
type page struct {
	Site   SiteConfig
	Meta   PageMeta
	JSONLD string
	Admin  bool
	Body   templ.Component
	Script string
}

func layout(p page) templ.Component {
	return component(func(h *htmlWriter) {
		h.raw("<!doctype html>\n<html lang=\"en\">\n<head>\n")
		h.raw(`<meta charset="utf-8">` + "\n")
		h.raw(`<meta name="viewport" content="width=device-width, initial-scale=1">` + "\n")
		h.raw("<title>")
		h.text(p.Meta.Title)
		h.raw("</title>\n")
		if p.Meta.Description != "" {
			h.raw(`<meta name="description"`)
			h.attr("content", p.Meta.Description)
			h.raw(">\n")
		}
		h.raw(`<meta property="og:title"`)
		h.attr("content", p.Meta.Title)
		h.raw(">\n")
		h.raw(`<meta property="og:type"`)
		h.attr("content", p.Meta.OGType)
		h.raw(">\n")
		if p.Meta.URL != "" {
			h.raw(`<meta property="og:url" content="`)
			h.url(p.Meta.URL)
			h.raw(`"><link rel="canonical" href="`)
			h.url(p.Meta.URL)
			h.raw("\">\n")
		}
		h.raw(`<link rel="alternate" type="application/rss+xml"`)
		h.attr("title", p.Site.Name)
		h.raw(` href="/feed.xml">` + "\n")
		h.raw(`<link rel="stylesheet" href="/public/styles.css">` + "\n")
		if p.JSONLD != "" {
			// json.Marshal escapes <, > and &, so the block cannot close the script.
			h.raw(`<script type="application/ld+json">`)
			h.raw(p.JSONLD)
			h.raw("</script>\n")
		}
		h.raw("</head>\n<body>\n")
		navbar(h, p)
		h.render(p.Body)
		h.raw("\n<footer class=\"footer\">\n<p>&copy; ")
		h.text(p.Site.Name)
		if p.Site.Author != "" {
			h.raw(" &middot; ")
			h.text(p.Site.Author)
		}
		h.raw("</p>\n</footer>\n")
		h.raw(`<div id="toast" class="toast" role="status" aria-live="polite" hidden></div>` + "\n")
		h.raw(searchScript)
		h.raw(p.Script)
		h.raw("</body>\n</html>\n")
	})
}

func navbar(h *htmlWriter, p page) {
	h.raw("<nav class=\"navbar\">\n<a class=\"brand\" href=\"/\">")
	h.text(p.Site.Name)
	h.raw("</a>\n")
	h.raw(`<div class="search">` + "\n")
	h.raw(`<input id="search-input" type="search" placeholder="Search posts..." autocomplete="off" aria-label="Search posts">` + "\n")
	h.raw(`<div id="search-results" class="search-results" hidden></div>` + "\n")
	h.raw("</div>\n")
	if p.Admin {
		h.raw(`<a href="/admin/">Dashboard</a>` + "\n")
	}
	h.raw("</nav>\n")
}

const searchScript = `<script>
(function () {
  var input = document.getElementById('search-input');
  var box = document.getElementById('search-results');
  var toast = document.getElementById('toast');
  if (!input || !box) return;
  window.livepressToast = function (msg) {
    toast.textContent = msg;
    toast.hidden = false;
    clearTimeout(toast._t);
    toast._t = setTimeout(function () { toast.hidden = true; }, 4000);
  };
  var pending;
  input.addEventListener('input', function () {
    var q = input.value;
    clearTimeout(pending);
    if (q.length <= 2) { box.hidden = true; box.innerHTML = ''; return; }
    pending = setTimeout(function () {
      fetch('/search?q=' + encodeURIComponent(q), { headers: { 'HX-Request': 'true' } })
        .then(function (res) { return res.text(); })
        .then(function (html) { box.innerHTML = html; box.hidden = false; });
    }, 150);
  });
})();
</script>
`

// liveScript keeps the content section in sync over /live/. A dropped
// socket is reopened with exponential backoff capped at 30s.
const liveScript = `<script>
(function () {
  if (!window.WebSocket) return;
  var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
  var ws, delay = 1000;
  function connect() {
    ws = new WebSocket(proto + location.host + '/live/');
    ws.onopen = function () { delay = 1000; };
    ws.onmessage = function (ev) {
      var msg = JSON.parse(ev.data);
      var section = document.getElementById('content');
      if (msg.type === 'state' && !msg.initialLoading && section) {
        section.outerHTML = msg.html;
      } else if (msg.type === 'notice' && window.livepressToast) {
        window.livepressToast(msg.message);
      }
    };
    ws.onclose = function () {
      setTimeout(connect, delay);
      delay = Math.min(delay * 2, 30000);
    };
  }
  connect();
  document.addEventListener('click', function (e) {
    var el = e.target.closest('[data-view-all]');
    if (!el || !ws || ws.readyState !== WebSocket.OPEN) return;
    e.preventDefault();
    ws.send(JSON.stringify({ action: 'expand' }));
  });
})();
</script>
`

// adminScript sends DELETE requests for [data-delete] buttons, taking the
// CSRF token from the admin nav.
const adminScript = `<script>
document.addEventListener('click', function (e) {
  var el = e.target.closest('[data-delete]');
  if (!el || !confirm('Delete this item?')) return;
  var nav = document.querySelector('[data-csrf]');
  fetch(el.getAttribute('data-delete'), {
    method: 'DELETE',
    headers: { 'X-CSRF-Token': nav ? nav.getAttribute('data-csrf') : '' }
  }).then(function () { location.reload(); });
});
</script>
`
