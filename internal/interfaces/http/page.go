package http

// statusPage is the operator-facing live QR viewer served at "/". It renders
// pairing challenges pushed over /ws and tracks session state.
const statusPage = `<!DOCTYPE html>
<html lang="es">
<head>
  <meta charset="UTF-8">
  <title>Relámpago Express - Escanea el QR</title>
  <script src="https://cdn.jsdelivr.net/npm/qrcode@1.5.1/build/qrcode.min.js"></script>
  <style>
    body {
      display:flex;
      flex-direction:column;
      align-items:center;
      justify-content:center;
      height:100vh;
      margin:0;
      font-family:sans-serif;
      background:#f5f5f5;
    }
    #qr { margin:20px; }
    h1 { color:#333; }
    p { color:#666; }
  </style>
</head>
<body>
  <h1>Escanea el QR con tu WhatsApp</h1>
  <canvas id="qr"></canvas>
  <p id="status">Esperando QR...</p>

  <script>
    const statusEl = document.getElementById('status');
    const canvasEl = document.getElementById('qr');
    const proto = location.protocol === 'https:' ? 'wss://' : 'ws://';

    function connect() {
      const ws = new WebSocket(proto + location.host + '/ws');

      ws.onmessage = e => {
        const frame = JSON.parse(e.data);
        switch (frame.event) {
          case 'qr':
            statusEl.innerText = '¡QR recibido! Generando imagen...';
            QRCode.toCanvas(canvasEl, frame.data, { width: 300 }, err => {
              statusEl.innerText = err ? 'Error generando el QR' : 'Escanea con WhatsApp';
            });
            break;
          case 'authenticated':
            statusEl.innerText = '🔒 Autenticado';
            break;
          case 'ready':
            statusEl.innerText = '✅ Bot listo';
            break;
          case 'disconnected':
            statusEl.innerText = '⚠️ Desconectado, reintentando...';
            break;
        }
      };

      ws.onclose = () => setTimeout(connect, 2000);
    }

    connect();
  </script>
</body>
</html>
`
