// Copyright 2024 The temp-mon Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

const pagesTmpl = `
{{define "header"}}
<html>
	<head>
		<meta charset="utf-8">
		<title>{{.Title}}</title>
		<style>
		body {
			font-family: sans-serif;
		}
		.temp-plot-style {
			font-size: 14px;
			line-height: 1.2em;
		}
		table {
			border-collapse: collapse;
		}
		td, th {
			border: 1px solid #999;
			padding: 0.3em 0.8em;
		}
		</style>
	</head>

	<body>
		<div id="header">
			<h2>{{.Title}}</h2>
			<a href="/">Dashboard</a> |
			<a href="/temperatures">Temperatures</a> |
			<a href="/avg_temp_hour">Hourly averages</a> |
			<a href="/avg_temp_day">Daily averages</a>
		</div>
{{end}}

{{define "footer"}}
		<br>
		<div id="footer"><small>temp-mon {{.Version}}</small></div>
	</body>
</html>
{{end}}

{{define "index"}}
{{template "header" .}}
		<div id="plots">
		{{range .Charts}}
			<div class="temp-plot-style">
				<h3>{{.Title}}</h3>
				{{if .Image}}
				<img id="plot-{{.Endpoint}}" src="{{.Image}}" alt="{{.Title}}">
				{{else}}
				<p id="plot-{{.Endpoint}}">No data available.</p>
				{{end}}
				<div id="update-{{.Endpoint}}"></div>
			</div>
		{{end}}
		</div>
		{{if .Live}}
		<script type="text/javascript">
		function live(endpoint) {
			var sock = new WebSocket("ws://"+location.host+"/live/"+endpoint);
			sock.onmessage = function(event) {
				var data = JSON.parse(event.data);
				var p = document.getElementById("plot-"+endpoint);
				if (data.plot) {
					if (p.tagName != "IMG") {
						var img = document.createElement("img");
						img.id = p.id;
						p.replaceWith(img);
						p = img;
					}
					p.src = "data:image/png;base64,"+data.plot;
				}
				p = document.getElementById("update-"+endpoint);
				p.innerHTML = "Last Update: <code>"+data.update+"</code>";
			};
		};

		window.onload = function() {
		{{range .Charts}}
			live({{.Endpoint}});
		{{end}}
		};
		</script>
		{{end}}
{{template "footer" .}}
{{end}}

{{define "table"}}
{{template "header" .}}
		<div id="data">
		{{if .Rows}}
			<table>
				<tr><th>Timestamp</th><th>Value</th></tr>
				{{range .Rows}}
				<tr><td>{{.Timestamp}}</td><td>{{.Value}}</td></tr>
				{{end}}
			</table>
		{{else}}
			<p>No data available.</p>
		{{end}}
		</div>
{{template "footer" .}}
{{end}}
`
