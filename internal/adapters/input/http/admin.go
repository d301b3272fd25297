package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
)

type deviceView struct {
	ID         string `json:"id"`
	HueID      string `json:"hue_id"`
	Name       string `json:"name"`
	On         bool   `json:"on"`
	Brightness uint8  `json:"bri"`
}

type createDeviceRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.bridge.GetDevices(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	views := make([]deviceView, 0, len(devices))
	for _, d := range devices {
		v := deviceView{ID: d.NativeID, HueID: d.ID, Name: d.Name}
		if d.State != nil {
			v.On = d.State.On
			v.Brightness = d.State.Bri
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"devices":  views,
		"settings": s.bridge.CreateDeviceSettings(),
	})
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	id, err := s.bridge.CreateDevice(r.Context(), req.Name)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.logger.Info("floodlight created", "native_id", id, "name", req.Name)
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.bridge.GetSettings(r.Context(), r.PathValue("id"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handlePutSettings accepts a {"key": "value"} object and applies each entry
// in key order. The first failure stops the update.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if err := s.bridge.PutSetting(r.Context(), id, k, values[k]); err != nil {
			s.fail(w, fmt.Errorf("setting %s: %w", k, err))
			return
		}
	}

	settings, err := s.bridge.GetSettings(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, adminPage)
}

const adminPage = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Floodlight Bridge Admin</title>
    <style>
        body { font-family: sans-serif; max-width: 1000px; margin: 40px auto; padding: 20px; line-height: 1.6; background-color: #f4f4f9; }
        .card { padding: 20px; background: white; border: 1px solid #ccc; border-radius: 4px; margin-bottom: 20px; }
        label { display: block; margin-bottom: 5px; font-weight: bold; }
        input[type="text"], input[type="password"] { width: 100%; padding: 8px; margin-bottom: 10px; box-sizing: border-box; border: 1px solid #ccc; border-radius: 4px; }
        button { padding: 10px 15px; background: #007bff; color: white; border: none; cursor: pointer; border-radius: 4px; }
        button:hover { background: #0056b3; }
        table { width: 100%; border-collapse: collapse; margin-bottom: 20px; }
        th, td { border: 1px solid #ddd; padding: 12px; text-align: left; }
        th { background-color: #f8f9fa; }
        #status { padding: 10px; border-radius: 4px; display: none; position: fixed; bottom: 20px; right: 20px; }
        .success { background: #d4edda; color: #155724; }
        .error { background: #f8d7da; color: #721c24; }
    </style>
</head>
<body>
    <h1>Floodlight Bridge Admin</h1>

    <div class="card">
        <h2>Floodlights</h2>
        <table id="devicesTable">
            <thead><tr><th>Hue ID</th><th>ID</th><th>Name</th><th>On</th><th>Bri</th><th></th></tr></thead>
            <tbody></tbody>
        </table>
        <label for="new_name">Name</label>
        <input type="text" id="new_name" placeholder="Floodlight">
        <button onclick="createDevice()">+ Add Floodlight</button>
    </div>

    <div class="card" id="settingsCard" style="display:none">
        <h2 id="settingsTitle">Settings</h2>
        <form id="settingsForm"></form>
        <button onclick="saveSettings()">Save</button>
    </div>

    <div id="status"></div>

    <script>
        let current = null;

        async function loadDevices() {
            const res = await fetch('/admin/devices');
            const data = await res.json();
            const tbody = document.querySelector('#devicesTable tbody');
            tbody.innerHTML = '';
            data.devices.forEach(d => {
                const tr = document.createElement('tr');
                [d.hue_id, d.id, d.name, String(d.on), String(d.bri)].forEach(v => {
                    const td = document.createElement('td');
                    td.textContent = v;
                    tr.appendChild(td);
                });
                const td = document.createElement('td');
                const btn = document.createElement('button');
                btn.textContent = 'Settings';
                btn.onclick = () => openSettings(d.id, d.name);
                td.appendChild(btn);
                tr.appendChild(td);
                tbody.appendChild(tr);
            });
        }

        async function createDevice() {
            const name = document.getElementById('new_name').value;
            const res = await fetch('/admin/devices', {
                method: 'POST',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify({ name: name })
            });
            showStatus(res.ok ? 'Floodlight created' : 'Error creating floodlight');
            loadDevices();
        }

        async function openSettings(id, name) {
            current = id;
            const res = await fetch('/admin/devices/' + encodeURIComponent(id) + '/settings');
            const settings = await res.json();
            const form = document.getElementById('settingsForm');
            form.innerHTML = '';
            settings.forEach(s => {
                const label = document.createElement('label');
                label.textContent = s.title;
                const input = document.createElement('input');
                input.name = s.key;
                if (s.type === 'boolean') {
                    input.type = 'checkbox';
                    input.checked = s.value === 'true';
                } else {
                    input.type = s.type === 'password' ? 'password' : 'text';
                    input.value = s.value || '';
                    input.placeholder = s.placeholder || '';
                }
                form.appendChild(label);
                form.appendChild(input);
            });
            document.getElementById('settingsTitle').textContent = 'Settings: ' + name;
            document.getElementById('settingsCard').style.display = 'block';
        }

        async function saveSettings() {
            const values = {};
            document.querySelectorAll('#settingsForm input').forEach(i => {
                values[i.name] = i.type === 'checkbox' ? String(i.checked) : i.value;
            });
            const res = await fetch('/admin/devices/' + encodeURIComponent(current) + '/settings', {
                method: 'PUT',
                headers: { 'Content-Type': 'application/json' },
                body: JSON.stringify(values)
            });
            showStatus(res.ok ? 'Settings saved' : 'Error saving settings');
            loadDevices();
        }

        function showStatus(msg) {
            const s = document.getElementById('status');
            s.textContent = msg;
            s.style.display = 'block';
            s.className = msg.includes('Error') ? 'error' : 'success';
            setTimeout(() => { s.style.display = 'none'; }, 3000);
        }

        loadDevices();
    </script>
</body>
</html>
`
