package ingest

import (
	"context"
	"errors"
	"net/http"

	"github.com/AngelCh415/FUNNEL_GO/internal/utils"
)

// GetJSONWithRetry retries transport errors and 5xx/429 responses with the
// given backoff. Other 4xx answers are final.
func GetJSONWithRetry(ctx context.Context, c HTTPClient, url string, dst any, b utils.Backoff) error {
	return b.Do(ctx, func(int) error {
		err := getJSON(ctx, c, url, dst)
		var se *StatusError
		if errors.As(err, &se) && se.Code < 500 && se.Code != http.StatusTooManyRequests {
			return utils.Permanent(err)
		}
		return err
	})
}
