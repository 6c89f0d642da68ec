package dart

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alphatalk/internal/models"
)

const corpCodeBody = `{"status":"000","message":"ok","corp_code":"00126380"}`

func TestFetchFundamentalsStepsBackWhenNotFiled(t *testing.T) {
	var years []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corpCode.json":
			fmt.Fprint(w, corpCodeBody)
		case "/fnlttSinglAcnt.json":
			years = append(years, r.URL.Query().Get("bsns_year"))
			if len(years) == 1 {
				fmt.Fprint(w, `{"status":"013","message":"no data"}`)
				return
			}
			fmt.Fprint(w, `{"status":"000","message":"ok","list":[
				{"account_nm":"매출액","thstrm_amount":"1,000","fs_div":"CFS"},
				{"account_nm":"당기순이익","thstrm_amount":"100","fs_div":"CFS"}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	metrics, err := client.FetchFundamentals(context.Background(), "005930")
	require.NoError(t, err)

	prior := strconv.Itoa(time.Now().Year() - 1)
	stepped := strconv.Itoa(time.Now().Year() - 2)
	assert.Equal(t, []string{prior, stepped}, years)

	assert.InDelta(t, 1000.0, metrics.Get(models.MetricRevenue).Value, 1e-9)
	assert.InDelta(t, 100.0, metrics.Get(models.MetricNetIncome).Value, 1e-9)
}

func TestFetchFundamentalsPrefersConsolidated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corpCode.json":
			fmt.Fprint(w, corpCodeBody)
		case "/fnlttSinglAcnt.json":
			fmt.Fprint(w, `{"status":"000","message":"ok","list":[
				{"account_nm":"매출액","thstrm_amount":"800","fs_div":"OFS"},
				{"account_nm":"매출액","thstrm_amount":"1,200","fs_div":"CFS"},
				{"account_nm":"자산총계","thstrm_amount":"5,000","fs_div":"OFS"}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	metrics, err := client.FetchFundamentals(context.Background(), "005930")
	require.NoError(t, err)

	assert.InDelta(t, 1200.0, metrics.Get(models.MetricRevenue).Value, 1e-9, "consolidated figure wins")
	assert.InDelta(t, 5000.0, metrics.Get(models.MetricTotalAssets).Value, 1e-9, "standalone fills when no consolidated row exists")
}

func TestFetchFundamentalsErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/corpCode.json":
			fmt.Fprint(w, corpCodeBody)
		case "/fnlttSinglAcnt.json":
			fmt.Fprint(w, `{"status":"020","message":"usage limit exceeded"}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := client.FetchFundamentals(context.Background(), "005930")
	assert.ErrorContains(t, err, "usage limit exceeded")
}
