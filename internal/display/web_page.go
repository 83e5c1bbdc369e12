package display

const dashboardHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Trading Bot Dashboard</title>
    <style>
        :root {
            --bg-primary: #0d1117;
            --bg-secondary: #161b22;
            --bg-tertiary: #21262d;
            --border-color: #30363d;
            --text-primary: #c9d1d9;
            --text-secondary: #8b949e;
            --text-heading: #f0f6fc;
            --accent-blue: #58a6ff;
            --accent-green: #3fb950;
            --accent-red: #f85149;
            --accent-yellow: #d29922;
        }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, monospace;
            background: var(--bg-primary);
            color: var(--text-primary);
            padding: 20px;
            line-height: 1.5;
        }
        h1 { color: var(--accent-blue); font-size: 24px; }
        h2 { color: var(--text-secondary); font-size: 14px; text-transform: uppercase; margin: 20px 0 10px; letter-spacing: 1px; }
        a { color: var(--accent-blue); }
        .header { display: flex; justify-content: space-between; align-items: center; margin-bottom: 20px; flex-wrap: wrap; gap: 10px; }
        .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(180px, 1fr)); gap: 12px; }
        .card { background: var(--bg-secondary); border: 1px solid var(--border-color); border-radius: 8px; padding: 14px; }
        .card .label { color: var(--text-secondary); font-size: 12px; }
        .card .value { color: var(--text-heading); font-size: 20px; font-weight: 600; }
        .positive { color: var(--accent-green) !important; }
        .negative { color: var(--accent-red) !important; }
        .badge { padding: 2px 10px; border-radius: 10px; font-weight: 600; color: #fff; }
        .badge.running { background: var(--accent-green); }
        .badge.stopped { background: var(--accent-red); }
        table { width: 100%; border-collapse: collapse; font-size: 13px; }
        th { text-align: left; color: var(--text-secondary); font-weight: 600; padding: 6px; border-bottom: 1px solid var(--border-color); }
        td { padding: 6px; border-bottom: 1px solid var(--bg-tertiary); }
        td.empty { text-align: center; color: var(--text-secondary); font-style: italic; }
        .config { display: grid; grid-template-columns: repeat(auto-fit, minmax(260px, 1fr)); gap: 12px; }
        .row { display: flex; justify-content: space-between; padding: 3px 0; }
        .logs { background: var(--bg-secondary); border: 1px solid var(--border-color); border-radius: 8px; padding: 10px; font-family: monospace; font-size: 12px; max-height: 260px; overflow-y: auto; white-space: pre-wrap; }
        .controls { display: flex; gap: 10px; align-items: center; margin-top: 20px; flex-wrap: wrap; }
        button { background: var(--bg-tertiary); color: var(--text-heading); border: 1px solid var(--border-color); border-radius: 6px; padding: 6px 14px; cursor: pointer; }
        button:disabled { opacity: 0.4; cursor: not-allowed; }
        .message.success, .export.success { color: var(--accent-green); }
        .message.error, .export.error { color: var(--accent-red); }
        .muted { color: var(--text-secondary); font-size: 12px; }
        #toasts { position: fixed; top: 20px; right: 20px; width: 340px; display: flex; flex-direction: column; gap: 8px; z-index: 10; }
        .toast { background: var(--bg-secondary); border-left: 4px solid var(--accent-blue); border-radius: 6px; padding: 10px 12px; display: flex; gap: 10px; transition: opacity 0.3s, transform 0.3s; }
        .toast.success { border-left-color: var(--accent-green); }
        .toast.error { border-left-color: var(--accent-red); }
        .toast.warning { border-left-color: var(--accent-yellow); }
        .toast.closing { opacity: 0; transform: translateX(40px); }
        .toast .body { flex: 1; }
        .toast .title { font-weight: 600; color: var(--text-heading); }
        .toast .text { white-space: pre-line; font-size: 13px; }
        .toast .close { background: none; border: none; color: var(--text-secondary); padding: 0 4px; }
        #permission { display: none; background: var(--bg-secondary); border: 1px solid var(--accent-blue); border-radius: 8px; padding: 10px 14px; margin-bottom: 20px; align-items: center; gap: 10px; }
        #permission.shown { display: flex; }
        #permission .text { flex: 1; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Trading Bot Dashboard</h1>
        <div><span id="status" class="badge stopped">Stopped</span> <span class="muted">Last update: <span id="last-updated">-</span></span></div>
    </div>

    <div id="permission">
        <span class="text">🔔 Enable system notifications for trade alerts?</span>
        <button data-answer="allow">Allow</button>
        <button data-answer="block">Block</button>
        <button data-answer="dismiss" title="Ask me later">✕</button>
    </div>

    <div class="grid" id="stats"></div>

    <h2>Open positions (<span id="open-count">0</span>)</h2>
    <table><thead><tr><th>Symbol</th><th>Side</th><th>Entry</th><th>Current</th><th>TP</th><th>SL</th><th>Size</th><th>Lev</th><th>PnL</th><th>Duration</th></tr></thead><tbody id="open"></tbody></table>

    <h2>Closed trades</h2>
    <table><thead><tr><th>Closed</th><th>Symbol</th><th>Side</th><th>Entry</th><th>Exit</th><th>Reason</th><th>Size</th><th>Lev</th><th>PnL</th><th>Duration</th></tr></thead><tbody id="history"></tbody></table>

    <h2>Configuration</h2>
    <div class="config" id="config"></div>

    <h2>Logs</h2>
    <div class="logs" id="logs"></div>

    <div class="controls">
        <button id="ctl-start" data-action="start">▶ Start</button>
        <button id="ctl-stop" data-action="stop">⏹ Stop</button>
        <button id="ctl-export" data-action="export">⬇ Export CSV</button>
        <button data-action="refresh">↻ Refresh</button>
        <button data-action="test">🧪 Test notification</button>
        <span id="export-status" class="export"></span>
        <span id="message" class="message"></span>
    </div>

    <div id="toasts"></div>

    <script>
        let ws;
        const el = (id) => document.getElementById(id);

        function esc(s) {
            const d = document.createElement('div');
            d.textContent = s == null ? '' : String(s);
            return d.innerHTML;
        }

        function send(msg) {
            if (ws && ws.readyState === WebSocket.OPEN) ws.send(JSON.stringify(msg));
        }

        function card(label, value, cls) {
            return '<div class="card"><div class="label">' + esc(label) + '</div><div class="value ' + (cls || '') + '">' + esc(value) + '</div></div>';
        }

        function symbolCell(row) {
            if (!row.link) return esc(row.symbol);
            return '<a href="' + esc(row.link) + '" target="_blank" rel="noopener">' + esc(row.symbol) + '</a>';
        }

        function pnlCell(row) {
            return '<td class="' + (row.pnl_class || '') + '">' + esc(row.pnl) + ' (' + esc(row.pnl_percent) + ')</td>';
        }

        const renderers = {
            stats(s) {
                el('stats').innerHTML =
                    card('Portfolio', s.portfolio + ' ' + (s.portfolio_change || '')) +
                    card('ROI', s.roi, s.roi_class) +
                    card('Balance', s.balance) +
                    card('Total PnL', s.total_pnl, s.total_pnl_class) +
                    card('Unrealized', s.unrealized, s.unrealized_class) +
                    card('Trades', s.total_trades + ' (' + s.wins + 'W / ' + s.losses + 'L)') +
                    card('Win rate', s.win_rate) +
                    card('Avg win / loss', s.avg_win + ' / ' + s.avg_loss) +
                    card('Best / worst', s.best_trade + ' / ' + s.worst_trade) +
                    card('Avg duration', s.avg_duration);
            },
            positions(p) {
                el('open-count').textContent = p.open_count;
                el('open').innerHTML = (p.open || []).map((r) => r.placeholder
                    ? '<tr><td colspan="10" class="empty">' + esc(r.placeholder) + '</td></tr>'
                    : '<tr><td>' + symbolCell(r) + '</td><td>' + esc(r.side) + '</td><td>' + esc(r.entry) + '</td><td>' + esc(r.current) +
                      '</td><td>' + esc(r.target) + '</td><td>' + esc(r.stop) + '</td><td>' + esc(r.size) + '</td><td>' + esc(r.leverage) +
                      '</td>' + pnlCell(r) + '<td>' + esc(r.duration) + '</td></tr>').join('');
                el('history').innerHTML = (p.history || []).map((r) => r.placeholder
                    ? '<tr><td colspan="10" class="empty">' + esc(r.placeholder) + '</td></tr>'
                    : '<tr><td>' + esc(r.closed_at) + '</td><td>' + symbolCell(r) + '</td><td>' + esc(r.side) + '</td><td>' + esc(r.entry) +
                      '</td><td>' + esc(r.exit) + '</td><td>' + esc(r.reason) + '</td><td>' + esc(r.size) + '</td><td>' + esc(r.leverage) +
                      '</td>' + pnlCell(r) + '<td>' + esc(r.duration) + '</td></tr>').join('');
            },
            status(s) {
                const b = el('status');
                b.textContent = s.label;
                b.className = 'badge ' + s.class;
            },
            config(c) {
                el('config').innerHTML = (c.sections || []).map((s) =>
                    '<div class="card"><div class="label">' + esc(s.title) + '</div>' +
                    (s.fields || []).map((f) => '<div class="row"><span class="muted">' + esc(f.label) + '</span><span>' + esc(f.value) + '</span></div>').join('') +
                    '</div>').join('');
            },
            logs(l) {
                const box = el('logs');
                box.textContent = l.placeholder ? l.placeholder : (l.lines || []).join('\n');
                box.scrollTop = box.scrollHeight;
            },
            last_updated(t) { el('last-updated').textContent = t; },
            controls(c) {
                for (const name of ['start', 'stop', 'export']) {
                    const b = el('ctl-' + name);
                    if (!c[name]) continue;
                    b.textContent = c[name].label;
                    b.disabled = !c[name].enabled;
                }
            },
            message(m) {
                const box = el('message');
                box.textContent = m.text;
                box.className = 'message ' + m.level;
            },
            export_status(s) {
                const box = el('export-status');
                box.textContent = s.text;
                box.className = 'export ' + (s.class || '');
            },
            toasts(list) {
                el('toasts').innerHTML = '';
                (list || []).forEach(addToast);
            },
            toast(t) { addToast(t); },
            toast_closing(id) {
                const node = el(id);
                if (node) node.classList.add('closing');
            },
            toast_removed(id) {
                const node = el(id);
                if (node) node.remove();
            },
            bell() { beep(); },
            permission(show) {
                el('permission').classList.toggle('shown', !!show);
            },
            download(d) {
                const bytes = Uint8Array.from(atob(d.data || ''), (c) => c.charCodeAt(0));
                const url = URL.createObjectURL(new Blob([bytes], { type: 'text/csv' }));
                const a = document.createElement('a');
                a.href = url;
                a.download = d.filename;
                document.body.appendChild(a);
                a.click();
                a.remove();
                URL.revokeObjectURL(url);
            },
        };

        function addToast(t) {
            const node = document.createElement('div');
            node.id = t.id;
            node.className = 'toast ' + t.category + (t.closing ? ' closing' : '');
            node.innerHTML = '<div>' + esc(t.icon) + '</div><div class="body"><div class="title">' + esc(t.title) +
                '</div><div class="text">' + esc(t.message) + '</div></div><button class="close">×</button>';
            node.querySelector('.close').onclick = () => send({ action: 'dismiss', id: t.id });
            el('toasts').appendChild(node);
        }

        function beep() {
            try {
                const ctx = new (window.AudioContext || window.webkitAudioContext)();
                const osc = ctx.createOscillator();
                const gain = ctx.createGain();
                osc.frequency.value = 880;
                gain.gain.value = 0.1;
                osc.connect(gain);
                gain.connect(ctx.destination);
                osc.start();
                osc.stop(ctx.currentTime + 0.15);
            } catch (e) {}
        }

        document.querySelectorAll('button[data-action]').forEach((b) => {
            b.onclick = () => send({ action: b.dataset.action });
        });

        document.querySelectorAll('button[data-answer]').forEach((b) => {
            b.onclick = () => send({ action: 'permission', answer: b.dataset.answer });
        });

        document.addEventListener('visibilitychange', () => {
            send({ action: 'visibility', visible: document.visibilityState === 'visible' });
        });

        function connect() {
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + location.host + '/ws');
            ws.onopen = () => send({ action: 'visibility', visible: document.visibilityState === 'visible' });
            ws.onmessage = (ev) => {
                const frame = JSON.parse(ev.data);
                const fn = renderers[frame.region];
                if (fn) fn(frame.payload);
            };
            ws.onclose = () => setTimeout(connect, 2000);
        }

        connect();
    </script>
</body>
</html>`
