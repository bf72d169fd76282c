package s3

import "testing"

func TestParseEndpoint(t *testing.T) {
	cases := []struct {
		endpoint string
		useSSL   bool
		host     string
		secure   bool
		wantErr  bool
	}{
		{endpoint: "localhost:9000", host: "localhost:9000"},
		{endpoint: "localhost:9000/", useSSL: true, host: "localhost:9000", secure: true},
		{endpoint: "https://s3.example.com", host: "s3.example.com", secure: true},
		{endpoint: "http://minio:9000", useSSL: true, host: "minio:9000"},
		{endpoint: "ftp://minio", wantErr: true},
		{endpoint: "  ", wantErr: true},
	}

	for _, tc := range cases {
		host, secure, err := parseEndpoint(tc.endpoint, tc.useSSL)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%q: expected error", tc.endpoint)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", tc.endpoint, err)
		}
		if host != tc.host || secure != tc.secure {
			t.Fatalf("%q: got %s secure=%v", tc.endpoint, host, secure)
		}
	}
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	if _, err := NewClient(Config{}); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
