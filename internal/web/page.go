package web

const consolePage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Doctor Recommendation System - Orchestration Console</title>
  <style>
    :root{
      --bg: #f6f7f9;
      --panel: #ffffff;
      --border: #dde1e6;
      --muted: #5f6b7a;
      --text: #1c232b;
      --accent: #0a66c2;
      --user: #e8f1fb;
      --danger: #c62828;
      --ok: #2e7d32;
      --font: ui-sans-serif, -apple-system, system-ui, Segoe UI, Roboto, Helvetica, Arial;
    }
    body{ margin:0; font-family: var(--font); background: var(--bg); color: var(--text); }
    main{ max-width: 980px; margin: 0 auto; padding: 24px; }
    h1{ font-size: 22px; margin: 0 0 16px; }
    .modes{ display:grid; grid-template-columns: repeat(4, 1fr); gap: 8px; margin-bottom: 12px; }
    .modes button.active{ background: var(--accent); color: #fff; }
    button{ font: inherit; padding: 8px 12px; border: 1px solid var(--border); border-radius: 8px; background: var(--panel); cursor: pointer; }
    button.primary{ background: var(--accent); color:#fff; border-color: var(--accent); }
    button:disabled{ opacity: .5; cursor: default; }
    .ids{ display:flex; justify-content: space-between; align-items:center; color: var(--muted); font-size: 13px; border-top: 1px solid var(--border); border-bottom: 1px solid var(--border); padding: 8px 0; margin-bottom: 16px; }
    .panel{ background: var(--panel); border: 1px solid var(--border); border-radius: 10px; padding: 16px; }
    .row{ display:flex; gap: 8px; margin-bottom: 8px; }
    .row input{ flex:1; }
    input, textarea{ font: inherit; padding: 8px; border: 1px solid var(--border); border-radius: 8px; width: 100%; box-sizing: border-box; }
    .log{ display:flex; flex-direction: column; gap: 10px; margin: 12px 0; }
    .turn{ padding: 10px 12px; border-radius: 10px; border: 1px solid var(--border); white-space: pre-wrap; }
    .turn.user{ background: var(--user); align-self: flex-end; max-width: 80%; }
    .turn.error{ color: var(--danger); }
    .turn h4{ margin: 10px 0 4px; font-size: 14px; }
    .turn ul{ margin: 0; padding-left: 20px; }
    .caption{ color: var(--muted); font-size: 12px; margin-top: 6px; }
    .card{ border: 1px solid var(--border); border-radius: 8px; padding: 8px; margin-top: 8px; }
    .notice{ padding: 8px 12px; border-radius: 8px; margin: 8px 0; background: #e7f4e8; color: var(--ok); }
    .warning{ padding: 8px 12px; border-radius: 8px; margin: 8px 0; background: #fdecea; color: var(--danger); }
    .info{ padding: 8px 12px; border-radius: 8px; margin: 8px 0; background: #e8f1fb; }
    .busy{ color: var(--muted); font-style: italic; }
    .metrics{ display:grid; grid-template-columns: repeat(3, 1fr); gap: 8px; }
    .metric{ border: 1px solid var(--border); border-radius: 8px; padding: 8px; text-align:center; }
    .metric b{ display:block; font-size: 20px; }
    .hidden{ display:none; }
  </style>
</head>
<body>
<main>
  <h1>Doctor Recommendation System</h1>
  <div class="modes" id="modes">
    <button data-mode="ask">Ask</button>
    <button data-mode="booking">Booking Chat</button>
    <button data-mode="upload">Upload (URLs)</button>
    <button data-mode="post">Post Consultation</button>
  </div>
  <div class="ids">
    <div><div id="sid"></div><div id="uid"></div></div>
    <button id="reset">New Session</button>
  </div>
  <div id="flash"></div>

  <section class="panel hidden" id="panel-ask">
    <div class="log" id="log-ask"></div>
    <div id="mcq-ask"></div>
    <form class="row" data-input="ask"><input name="text" placeholder="Ask about healthcare services..." /><button class="primary">Send</button></form>
  </section>

  <section class="panel hidden" id="panel-booking">
    <form class="row" id="slot-form"><input name="slot_id" placeholder="e.g., slot_123" /><button class="primary">Set Slot ID</button></form>
    <div id="slot-info"></div>
    <div class="log" id="log-booking"></div>
    <div id="mcq-booking"></div>
    <form class="row" data-input="booking"><input name="text" placeholder="Type your message..." /><button class="primary">Send</button></form>
  </section>

  <section class="panel hidden" id="panel-upload">
    <p>Paste one or more file URLs (PDF/JPG/PNG), separated by new lines. s3:// references are presigned when S3 access is configured.</p>
    <form id="upload-form">
      <textarea name="text" rows="6" placeholder="https://example.com/file1.pdf&#10;https://example.com/xray1.png"></textarea>
      <div class="row"><button class="primary">Process URLs</button></div>
    </form>
    <div id="upload-result"></div>
  </section>

  <section class="panel hidden" id="panel-post">
    <form id="post-form">
      <div class="row"><input name="slot_id" placeholder="e.g., slot_123" /><button class="primary">Process</button></div>
      <textarea name="post_text" rows="5" placeholder="e.g., 1500 grafts, frontal area, FUE. Consider contour refinement ..."></textarea>
    </form>
    <div id="post-info"></div>
    <div class="log" id="log-post"></div>
    <div id="mcq-post"></div>
    <form class="row" data-input="post"><input name="text" placeholder="Ask follow-up or refine plan..." /><button class="primary">Send</button></form>
  </section>
</main>
<script>
(function(){
  var state = null;
  var busy = false;

  function el(tag, cls, text){
    var n = document.createElement(tag);
    if (cls) n.className = cls;
    if (text !== undefined && text !== null) n.textContent = String(text);
    return n;
  }
  function list(parent, title, items){
    if (!items || !items.length) return;
    parent.appendChild(el('h4', '', title));
    var ul = el('ul');
    items.forEach(function(i){ ul.appendChild(el('li', '', i)); });
    parent.appendChild(ul);
  }
  function flash(kind, text){
    var f = document.getElementById('flash');
    f.innerHTML = '';
    if (text) f.appendChild(el('div', kind, text));
  }

  function api(path, body){
    if (busy) return Promise.resolve();
    busy = true;
    document.body.classList.add('is-busy');
    flash('busy', 'Processing...');
    var opts = { method: body === undefined ? 'GET' : 'POST', credentials: 'same-origin', headers: {} };
    var token = window.localStorage.getItem('orch_console_token');
    if (token) opts.headers['Authorization'] = 'Bearer ' + token;
    if (body !== undefined) { opts.headers['Content-Type'] = 'application/json'; opts.body = JSON.stringify(body); }
    return fetch(path, opts).then(function(res){
      return res.json().then(function(data){
        busy = false;
        flash('', '');
        if (!res.ok) { flash('warning', data.error || ('HTTP ' + res.status)); return; }
        state = data;
        draw();
        if (data.error) flash('warning', data.error);
        else if (data.notice) flash('notice', data.notice);
        return data;
      });
    }).catch(function(err){
      busy = false;
      flash('warning', 'Request failed: ' + err);
    });
  }

  function drawPlan(parent, plan){
    if (!plan || !plan.length) return;
    parent.appendChild(el('h4', '', 'Treatment Plan'));
    plan.forEach(function(item, i){
      var card = el('div', 'card');
      card.appendChild(el('strong', '', 'Plan ' + (i + 1) + ': ' + item.heading));
      if (item.specifications_text) card.appendChild(el('div', 'caption', item.specifications_text));
      if (item.specifications) list(card, 'Specifications', item.specifications.map(function(kv){ return kv.key + ': ' + kv.value; }));
      if (item.rationale) { card.appendChild(el('h4', '', 'Rationale')); card.appendChild(el('div', '', item.rationale)); }
      list(card, 'Steps', item.steps);
      if (item.estimated_sessions) card.appendChild(el('div', 'caption', 'Estimated sessions: ' + item.estimated_sessions));
      if (item.follow_up) card.appendChild(el('div', 'caption', 'Follow-up: ' + item.follow_up));
      (item.buttons || []).forEach(function(label){ card.appendChild(el('button', '', label)); });
      parent.appendChild(card);
    });
  }

  function drawReply(node, v){
    if (v.is_text) { node.appendChild(el('div', '', v.text)); return; }
    if (v.text) node.appendChild(el('div', '', v.text));
    if (v.structured_response) node.appendChild(el('pre', '', JSON.stringify(v.structured_response, null, 2)));
    list(node, 'Recommendations', v.recommendations);
    list(node, 'Next Steps', v.next_steps);
    list(node, 'Additional Recommendations', v.additional_recommendations);
    list(node, 'Warnings', v.warnings);
    if (v.summary && v.summary.length === 1) { node.appendChild(el('h4', '', 'Summary')); node.appendChild(el('div', '', v.summary[0])); }
    else list(node, 'Summary', v.summary);
    if (v.chat_summary) { node.appendChild(el('h4', '', 'Chat Summary')); node.appendChild(el('div', '', v.chat_summary)); }
    if (v.booking) {
      var card = el('div', 'card');
      card.appendChild(el('strong', '', 'Booking Details'));
      ['service', 'doctor', 'date', 'time'].forEach(function(k){
        card.appendChild(el('div', 'caption', k.charAt(0).toUpperCase() + k.slice(1) + ': ' + v.booking[k]));
      });
      node.appendChild(card);
    }
    drawPlan(node, v.treatment_plan);
    list(node, 'Products', v.products);
    list(node, 'Lab Tests', v.lab_tests);
    if (v.progress) node.appendChild(el('div', 'caption', 'Assessment progress: ' + v.progress));
    if (v.sources && v.sources.length) node.appendChild(el('div', 'caption', 'Sources: ' + v.sources.join(', ')));
    if (v.success !== undefined && v.success !== null) node.appendChild(el('div', 'caption', 'Success: ' + v.success));
  }

  function drawUpload(node, u){
    if (!u.structured) {
      node.appendChild(el('h4', '', 'Processing Result'));
      node.appendChild(el('pre', '', u.raw_text));
      return;
    }
    var m = el('div', 'metrics');
    [['Total Files', u.total_processed], ['Successfully Processed', u.total_successful], ['Success Rate', u.success_rate.toFixed(1) + '%']].forEach(function(p){
      var box = el('div', 'metric'); box.appendChild(el('b', '', p[1])); box.appendChild(el('span', '', p[0])); m.appendChild(box);
    });
    node.appendChild(m);
    (u.processed_files || []).forEach(function(f, i){
      var card = el('div', 'card');
      var url = f.file_url || '';
      card.appendChild(el('strong', '', 'File ' + (i + 1) + ': ' + (url ? url.split('/').pop() : 'Unknown')));
      card.appendChild(el('div', f.success ? 'notice' : 'warning', f.success ? 'Successfully Processed' : 'Processing Failed'));
      card.appendChild(el('div', 'caption', 'File Type: ' + (f.file_type || 'Unknown').toUpperCase()));
      card.appendChild(el('div', 'caption', 'Healthcare Related: ' + (f.is_healthcare_related ? 'Yes' : 'No')));
      if (f.doc_type) card.appendChild(el('div', 'caption', 'Doc Type: ' + f.doc_type));
      card.appendChild(el('div', 'caption', 'File URL: ' + (url || 'N/A')));
      if (f.summary) { card.appendChild(el('h4', '', 'Summary')); card.appendChild(el('div', '', f.summary)); }
      if (f.description) { card.appendChild(el('h4', '', 'Description')); card.appendChild(el('div', '', f.description)); }
      if (f.error) { card.appendChild(el('h4', '', 'Error')); card.appendChild(el('div', 'warning', f.error)); }
      node.appendChild(card);
    });
  }

  function drawLog(mode){
    var log = state.logs[mode];
    var box = document.getElementById('log-' + mode);
    if (box) {
      box.innerHTML = '';
      log.turns.forEach(function(t){
        var node = el('div', 'turn ' + t.role + (t.error ? ' error' : ''));
        if (t.view) drawReply(node, t.view); else node.textContent = t.content;
        box.appendChild(node);
      });
      if (log.notice) box.appendChild(el('div', 'notice', log.notice));
    }
    var mcqBox = document.getElementById('mcq-' + mode);
    if (mcqBox) {
      mcqBox.innerHTML = '';
      if (log.gate === 'mcq_pending' && log.pending_mcq) {
        mcqBox.appendChild(el('h4', '', log.pending_mcq.question));
        log.pending_mcq.options.forEach(function(opt, idx){
          var b = el('button', '', opt);
          b.addEventListener('click', function(){ api('/api/' + mode + '/select', { index: idx }); });
          mcqBox.appendChild(b);
        });
      }
    }
    var form = document.querySelector('form[data-input="' + mode + '"]');
    if (form) {
      var locked = log.gate !== 'free_text';
      if (mode === 'booking') locked = locked || !state.slot_id;
      if (mode === 'post') locked = locked || !state.post_context;
      form.classList.toggle('hidden', locked);
    }
  }

  function draw(){
    document.getElementById('sid').textContent = 'Session ID: ' + state.session_id;
    document.getElementById('uid').textContent = 'User ID: ' + state.user_id;
    document.querySelectorAll('#modes button').forEach(function(b){
      b.classList.toggle('active', b.dataset.mode === state.mode);
      document.getElementById('panel-' + b.dataset.mode).classList.toggle('hidden', b.dataset.mode !== state.mode);
    });
    var slotInfo = document.getElementById('slot-info');
    slotInfo.innerHTML = '';
    slotInfo.appendChild(el('div', 'info', state.slot_id ? 'Current Slot ID: ' + state.slot_id : 'Enter a Slot ID and click Set Slot ID to start.'));
    var postInfo = document.getElementById('post-info');
    postInfo.innerHTML = '';
    if (state.post_context) postInfo.appendChild(el('div', 'info', 'Current Slot ID: ' + state.post_context.slot_id));
    ['ask', 'booking', 'post'].forEach(drawLog);
    var up = document.getElementById('upload-result');
    up.innerHTML = '';
    var turns = state.logs.upload.turns;
    for (var i = turns.length - 1; i >= 0; i--) {
      if (turns[i].role !== 'assistant') continue;
      if (turns[i].upload) drawUpload(up, turns[i].upload);
      else up.appendChild(el('div', 'warning', turns[i].content));
      break;
    }
  }

  document.querySelectorAll('#modes button').forEach(function(b){
    b.addEventListener('click', function(){ api('/api/session/mode', { mode: b.dataset.mode }); });
  });
  document.getElementById('reset').addEventListener('click', function(){ api('/api/session/reset', {}); });
  document.querySelectorAll('form[data-input]').forEach(function(form){
    form.addEventListener('submit', function(e){
      e.preventDefault();
      var input = form.elements.text;
      var text = input.value;
      api('/api/' + form.dataset.input + '/messages', { text: text }).then(function(d){ if (d) input.value = ''; });
    });
  });
  document.getElementById('slot-form').addEventListener('submit', function(e){
    e.preventDefault();
    api('/api/booking/slot', { slot_id: e.target.elements.slot_id.value });
  });
  document.getElementById('post-form').addEventListener('submit', function(e){
    e.preventDefault();
    api('/api/post/context', { slot_id: e.target.elements.slot_id.value, post_text: e.target.elements.post_text.value });
  });
  document.getElementById('upload-form').addEventListener('submit', function(e){
    e.preventDefault();
    api('/api/upload', { text: e.target.elements.text.value });
  });

  api('/api/session');
})();
</script>
</body>
</html>`
