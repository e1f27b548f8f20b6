package serialize_test

import (
	"strings"
	"testing"

	"github.com/oorabona/unireq/pkg/serialize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_FilenameSanitized(t *testing.T) {
	form := serialize.Form{
		Files: []serialize.File{{Name: "f", Filename: "../../etc/passwd\x00", Data: []byte("x"), ContentType: "text/plain"}},
	}

	data, contentType, err := serialize.Build(form, serialize.MultipartOptions{})
	require.NoError(t, err)
	assert.Contains(t, contentType, "multipart/form-data")
	assert.NotContains(t, string(data), "..")
	assert.Contains(t, string(data), "__")
}

func TestBuild_RejectsOversizedFile(t *testing.T) {
	form := serialize.Form{
		Files: []serialize.File{{Name: "f", Filename: "big.bin", Data: make([]byte, 100), ContentType: "application/octet-stream"}},
	}

	_, _, err := serialize.Build(form, serialize.MultipartOptions{MaxFileSize: 99})
	require.Error(t, err)
}

func TestBuild_AllowsExactSizeLimit(t *testing.T) {
	form := serialize.Form{
		Files: []serialize.File{{Name: "f", Filename: "ok.bin", Data: make([]byte, 100), ContentType: "application/octet-stream"}},
	}

	_, _, err := serialize.Build(form, serialize.MultipartOptions{MaxFileSize: 100})
	require.NoError(t, err)
}

func TestBuild_MIMEAllowlistPrefixMatch(t *testing.T) {
	form := serialize.Form{
		Files: []serialize.File{{Name: "f", Filename: "a.png", Data: []byte("x"), ContentType: "image/png"}},
	}

	_, _, err := serialize.Build(form, serialize.MultipartOptions{MIMEAllowlist: []string{"image/*"}})
	require.NoError(t, err)

	_, _, err = serialize.Build(form, serialize.MultipartOptions{MIMEAllowlist: []string{"application/pdf"}})
	require.Error(t, err)
}

func TestBuild_EmptyAllowlistPermitsEverything(t *testing.T) {
	form := serialize.Form{
		Files: []serialize.File{{Name: "f", Filename: "a.exe", Data: []byte("x"), ContentType: "application/x-msdownload"}},
	}

	_, _, err := serialize.Build(form, serialize.MultipartOptions{})
	require.NoError(t, err)
}

func TestBuild_FieldsEncoded(t *testing.T) {
	form := serialize.Form{Fields: []serialize.Field{{Name: "a", Value: "1"}}}
	data, _, err := serialize.Build(form, serialize.MultipartOptions{})
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `name="a"`))
}
