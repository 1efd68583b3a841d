package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/vizprep-cli/internal/app"
	"github.com/KaramelBytes/vizprep-cli/internal/store"
)

const salesCSV = "region,units,price\nNorth,10,1.5\nSouth,NA,2.5\nEast,30,3\nNorth,25,4\nWest,1000,5\n"

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	st, err := store.NewFSStore(t.TempDir(), nil)
	require.NoError(t, err)
	srv := httptest.NewServer(NewHandler(app.New(st, nil), nil, 1).Router())
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, name, filename, body string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if name != "" {
		require.NoError(t, mw.WriteField("name", name))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	resp, err := http.Post(srv.URL+"/projects", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	return resp
}

func call(t *testing.T, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var out bytes.Buffer
	_, err = out.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp, out.Bytes()
}

func errorOf(t *testing.T, body []byte) string {
	t.Helper()
	var e map[string]string
	require.NoError(t, json.Unmarshal(body, &e))
	return e["error"]
}

func TestProjectLifecycle(t *testing.T) {
	srv := newServer(t)
	resp := upload(t, srv, "", "sales.csv", salesCSV)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = upload(t, srv, "sales", "sales.csv", salesCSV)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, srv, "doc", "notes.pdf", "x")
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	res, body := call(t, http.MethodGet, srv.URL+"/projects/sales", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var p struct {
		Name     string `json:"name"`
		Metadata struct {
			Rows    int `json:"rows"`
			Cols    int `json:"cols"`
			Columns []struct {
				Name         string `json:"name"`
				Type         string `json:"type"`
				MissingCount int    `json:"missing_count"`
			} `json:"metadata"`
		} `json:"metadata"`
	}
	require.NoError(t, json.Unmarshal(body, &p))
	assert.Equal(t, 5, p.Metadata.Rows)
	assert.Equal(t, "numerical", p.Metadata.Columns[1].Type)
	assert.Equal(t, 1, p.Metadata.Columns[1].MissingCount)

	res, body = call(t, http.MethodGet, srv.URL+"/projects", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"name":"sales"`)

	res, body = call(t, http.MethodGet, srv.URL+"/projects/ghost", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "ghost")

	res, _ = call(t, http.MethodDelete, srv.URL+"/projects/sales", nil)
	assert.Equal(t, http.StatusNoContent, res.StatusCode)
	res, _ = call(t, http.MethodGet, srv.URL+"/projects/sales", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRowsAndUnique(t *testing.T) {
	srv := newServer(t)
	upload(t, srv, "sales", "sales.csv", salesCSV).Body.Close()

	res, body := call(t, http.MethodGet, srv.URL+"/projects/sales/rows?sort_key=units&sort_direction=desc", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(body, &rows))
	require.Len(t, rows, 5)
	assert.Equal(t, "West", rows[0]["region"])
	assert.Nil(t, rows[4]["units"], "missing sorts last")

	res, _ = call(t, http.MethodGet, srv.URL+"/projects/sales/rows?sort_direction=up", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = call(t, http.MethodGet, srv.URL+"/projects/sales/columns/region/unique", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `{"column":"region","unique_values":["East","North","South","West"]}`, string(body))

	res, _ = call(t, http.MethodGet, srv.URL+"/projects/sales/columns/zip/unique", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestCleaningEndpoints(t *testing.T) {
	srv := newServer(t)
	upload(t, srv, "sales", "sales.csv", salesCSV).Body.Close()
	base := srv.URL + "/projects/sales/clean"

	res, body := call(t, http.MethodPost, base+"/impute", map[string]any{"column": "region", "method": "mean"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "categorical")

	res, body = call(t, http.MethodPost, base+"/impute", map[string]any{"column": "units", "method": "constant", "constant": 0})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	assert.Contains(t, string(body), `"missing_count":0`)

	res, body = call(t, http.MethodPost, base+"/outliers/detect", map[string]any{"column": "units"})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var rep struct {
		Count int            `json:"outlier_count"`
		Plot  map[string]any `json:"plot_spec"`
	}
	require.NoError(t, json.Unmarshal(body, &rep))
	assert.Equal(t, 1, rep.Count)
	assert.Equal(t, "box", rep.Plot["kind"])

	res, _ = call(t, http.MethodPost, base+"/outliers/treat", map[string]any{"column": "units", "method": "remove"})
	require.Equal(t, http.StatusOK, res.StatusCode)

	res, body = call(t, http.MethodPost, base+"/recode", map[string]any{"column": "region", "value_map": map[string]any{"North": "N"}})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `\"region\":\"N\"`)

	res, _ = call(t, http.MethodPost, base+"/recode", map[string]any{"column": "region", "value_map": map[string]any{"North": []string{"x"}}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, _ = call(t, http.MethodPost, base+"/batch-impute", map[string]any{"imputations": []map[string]any{
		{"column": "region", "method": "mode"}, {"column": "price", "method": "bogus"},
	}})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)

	res, body = call(t, http.MethodPost, base+"/remove-column", map[string]any{"column": "price"})
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Contains(t, string(body), `"cols":2`)

	res, _ = call(t, http.MethodPost, base+"/remove-column", nil)
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestChartEndpoint(t *testing.T) {
	srv := newServer(t)
	upload(t, srv, "sales", "sales.csv", salesCSV).Body.Close()
	url := srv.URL + "/projects/sales/charts"

	res, body := call(t, http.MethodPost, url, map[string]any{
		"chart_kind":     "bar_chart",
		"column_mapping": map[string]any{"x_axis": "region", "y_axis": "units"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, errorOf(t, body), "missing values")

	res, body = call(t, http.MethodPost, url, map[string]any{
		"chart_kind":        "histogram",
		"column_mapping":    map[string]any{"x_axis": "price"},
		"tuning_parameters": map[string]any{"custom_title": "Prices"},
		"filters":           map[string]any{"region": []string{"North"}},
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(body))
	var resp struct {
		Kind     string `json:"chart_kind"`
		Text     string `json:"analysis_text"`
		Rows     int    `json:"rows"`
		ChartOut struct {
			Mode string         `json:"mode"`
			Spec map[string]any `json:"spec"`
		} `json:"chart_data"`
	}
	require.NoError(t, json.Unmarshal(body, &resp))
	assert.Equal(t, "histogram", resp.Kind)
	assert.Equal(t, 2, resp.Rows)
	assert.Equal(t, "Prices", resp.ChartOut.Spec["title"])
	assert.Contains(t, resp.Text, "Distribution analysis for 'price'")

	res, _ = call(t, http.MethodPost, url, map[string]any{"chart_kind": "radar"})
	assert.Equal(t, http.StatusBadRequest, res.StatusCode)
}

func TestExport(t *testing.T) {
	srv := newServer(t)
	upload(t, srv, "sales", "sales.csv", salesCSV).Body.Close()
	res, body := call(t, http.MethodGet, srv.URL+"/projects/sales/export", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/csv", res.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(string(body), "region,units,price\nNorth,10,1.5\nSouth,,2.5\n"))

	res, _ = call(t, http.MethodGet, srv.URL+"/projects/ghost/export", nil)
	assert.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
