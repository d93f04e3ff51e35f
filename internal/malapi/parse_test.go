package malapi

import (
	"strings"
	"testing"

	"pescan/internal/errors"
)

const sampleIndex = `<html><body>
<table>
  <tr>
    <th> Enumeration </th>
    <th>Injection</th>
  </tr>
  <tr>
    <td><table><tbody>
      <tr><td class="map-item">CreateToolhelp32Snapshot</td></tr>
      <tr><td class="map-item">EnumProcesses</td></tr>
    </tbody></table></td>
    <td><table><tbody>
      <tr><td class="map-item">VirtualAllocEx</td></tr>
      <tr><td class="map-item">WriteProcessMemory</td></tr>
      <tr><td class="map-item">CreateRemoteThread</td></tr>
    </tbody></table></td>
  </tr>
</table>
</body></html>`

const sampleDetail = `<html><body>
<div class="content">VirtualAllocEx</div>
<div class="content">
  Reserves or commits a region of memory within the address space of another process.
</div>
<div class="content">kernel32.dll</div>
<div class="content">Samples</div>
<div class="content">https://learn.microsoft.com/en-us/windows/win32/api/memoryapi/nf-memoryapi-virtualallocex</div>
</body></html>`

func TestParseIndex(t *testing.T) {
	manifest, err := parseIndex(strings.NewReader(sampleIndex))
	if err != nil {
		t.Fatalf("parseIndex failed: %v", err)
	}

	wantHeaders := []string{"Enumeration", "Injection"}
	headers := manifest.Headers()
	if len(headers) != len(wantHeaders) {
		t.Fatalf("got %d headers, want %d", len(headers), len(wantHeaders))
	}
	for i, h := range wantHeaders {
		if headers[i] != h {
			t.Errorf("header[%d] = %q, want %q", i, headers[i], h)
		}
	}

	wantNames := [][]string{
		{"CreateToolhelp32Snapshot", "EnumProcesses"},
		{"VirtualAllocEx", "WriteProcessMemory", "CreateRemoteThread"},
	}
	for i, want := range wantNames {
		got := manifest.Categories[i].Names()
		if len(got) != len(want) {
			t.Fatalf("category %d has %d names, want %d", i, len(got), len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Errorf("category %d name %d = %q, want %q", i, j, got[j], want[j])
			}
		}
	}
}

func TestParseIndexRejectsDrift(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{
			name: "no headers",
			html: `<html><body><p>maintenance page</p></body></html>`,
		},
		{
			name: "header without column",
			html: `<html><body><table>
				<tr><th>Injection</th><th>Spying</th></tr>
				<tr><td><table><tbody>
					<tr><td class="map-item">VirtualAllocEx</td></tr>
				</tbody></table></td></tr>
			</table></body></html>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseIndex(strings.NewReader(tt.html))
			if err == nil {
				t.Fatal("expected a parse error")
			}
			if !errors.HasCode(err, errors.ParseFailed) {
				t.Errorf("error code = %q, want PARSE_FAILED", errors.CodeOf(err))
			}
		})
	}
}

func TestParseDetail(t *testing.T) {
	d, ok := parseDetail(strings.NewReader(sampleDetail))
	if !ok {
		t.Fatal("parseDetail reported missing content")
	}

	if !strings.HasPrefix(d.info, "Reserves or commits") {
		t.Errorf("info = %q", d.info)
	}
	if d.library != "kernel32.dll" {
		t.Errorf("library = %q", d.library)
	}
	if !strings.HasPrefix(d.documentation, "https://learn.microsoft.com/") {
		t.Errorf("documentation = %q", d.documentation)
	}
}

func TestParseDetailMissingContent(t *testing.T) {
	if _, ok := parseDetail(strings.NewReader(`<html><body><div class="content">only one</div></body></html>`)); ok {
		t.Error("expected missing content for a page with too few blocks")
	}
}

func TestLookup(t *testing.T) {
	manifest := &Manifest{Categories: []Category{
		{Header: "Injection", APIs: []API{
			{Name: "VirtualAllocEx", Library: "kernel32.dll"},
		}},
	}}

	api, ok := manifest.Lookup(0, "VirtualAllocEx")
	if !ok {
		t.Fatal("expected lookup hit")
	}
	if api.Library != "kernel32.dll" {
		t.Errorf("library = %q", api.Library)
	}

	if _, ok := manifest.Lookup(0, "LoadLibraryA"); ok {
		t.Error("expected miss for unknown name")
	}
	if _, ok := manifest.Lookup(5, "VirtualAllocEx"); ok {
		t.Error("expected miss for out-of-range category")
	}
}
