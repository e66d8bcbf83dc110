package application

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"codecraft/backend/internal/features/export/domain"
)

const defaultAppName = "generated-app"

const indexHTML = `<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <script src="https://cdn.tailwindcss.com"></script>
  </head>
  <body>
    <div id="root"></div>
  </body>
</html>
`

const indexTSX = `import React from "react";
import ReactDOM from "react-dom/client";
import App from "./App";

const root = ReactDOM.createRoot(document.getElementById("root") as HTMLElement);
root.render(
  <React.StrictMode>
    <App />
  </React.StrictMode>
);
`

const mobileReadme = `# %s

Generated React app packaged with Capacitor.

    npm install
    npm run build
    npx cap add android   # or ios
    npm run cap:sync
    npx cap open android
`

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns a display name into a package and app id friendly name.
func Slug(name string) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if len(s) > 48 {
		s = strings.Trim(s[:48], "-")
	}
	if s == "" {
		return defaultAppName
	}
	return s
}

// BuildBundle lays out code as a complete project for target.
func BuildBundle(name, code string, target domain.Target) (domain.Bundle, error) {
	slug := Slug(name)
	title := strings.TrimSpace(name)
	if title == "" {
		title = "Generated App"
	}

	scripts := map[string]string{
		"start": "react-scripts start",
		"build": "react-scripts build",
		"test":  "react-scripts test",
		"eject": "react-scripts eject",
	}
	deps := map[string]string{
		"react":         "^18.0.0",
		"react-dom":     "^18.0.0",
		"react-scripts": "^5.0.0",
		"typescript":    "^4.0.0",
		"lucide-react":  "^0.263.1",
		"recharts":      "^2.12.0",
	}

	files := map[string]string{
		"src/App.tsx":       code,
		"src/index.tsx":     indexTSX,
		"public/index.html": fmt.Sprintf(indexHTML, title),
	}

	if target == domain.TargetMobile {
		scripts["cap:sync"] = "npm run build && cap sync"
		deps["@capacitor/core"] = "^6.0.0"
		deps["@capacitor/android"] = "^6.0.0"
		deps["@capacitor/ios"] = "^6.0.0"
		capConfig, err := marshal(map[string]any{
			"appId":   "com.codecraft." + strings.ReplaceAll(slug, "-", ""),
			"appName": title,
			"webDir":  "build",
		})
		if err != nil {
			return domain.Bundle{}, err
		}
		files["capacitor.config.json"] = capConfig
		files["README.md"] = fmt.Sprintf(mobileReadme, title)
	}

	pkg := map[string]any{
		"name":         slug,
		"version":      "1.0.0",
		"private":      true,
		"scripts":      scripts,
		"dependencies": deps,
	}
	if target == domain.TargetMobile {
		pkg["devDependencies"] = map[string]string{"@capacitor/cli": "^6.0.0"}
	}
	pkgJSON, err := marshal(pkg)
	if err != nil {
		return domain.Bundle{}, err
	}
	files["package.json"] = pkgJSON

	tsconfig, err := marshal(map[string]any{
		"compilerOptions": map[string]any{
			"target":                           "es5",
			"lib":                              []string{"dom", "dom.iterable", "esnext"},
			"allowJs":                          true,
			"skipLibCheck":                     true,
			"esModuleInterop":                  true,
			"allowSyntheticDefaultImports":     true,
			"strict":                           true,
			"forceConsistentCasingInFileNames": true,
			"module":                           "esnext",
			"moduleResolution":                 "node",
			"resolveJsonModule":                true,
			"isolatedModules":                  true,
			"noEmit":                           true,
			"jsx":                              "react-jsx",
		},
		"include": []string{"src"},
	})
	if err != nil {
		return domain.Bundle{}, err
	}
	files["tsconfig.json"] = tsconfig

	b := domain.Bundle{Name: slug, Target: target, Files: make([]domain.File, 0, len(files))}
	for path, data := range files {
		b.Files = append(b.Files, domain.File{Path: path, Data: data})
	}
	sort.Slice(b.Files, func(i, j int) bool { return b.Files[i].Path < b.Files[j].Path })
	return b, nil
}

// Zip writes the bundle as a zip archive with every entry under the bundle name.
func Zip(b domain.Bundle, modified time.Time) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range b.Files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     b.Name + "/" + f.Path,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Path, err)
		}
		if _, err := w.Write([]byte(f.Data)); err != nil {
			return nil, fmt.Errorf("zip %s: %w", f.Path, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize zip: %w", err)
	}
	return buf.Bytes(), nil
}

func marshal(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
