package pcloud

import (
	"context"
	"log/slog"
)

// BestEndpoint asks the API which server is nearest and returns it as
// a base URL. The constructors call this once; long-lived programs may
// call it again to migrate between requests.
//
// Discovery is best-effort: any failure, including an empty candidate
// list, falls back to the client's current host and is logged rather
// than surfaced.
func (c *Client) BestEndpoint(ctx context.Context) string {
	var out apiServersResponse
	if err := c.getJSON(ctx, "getapiserver", nil, &out); err != nil {
		c.logger.Warn("api server discovery failed, keeping host",
			slog.String("host", c.host),
			slog.String("error", err.Error()),
		)

		return c.host
	}

	if len(out.API) == 0 {
		c.logger.Warn("api server discovery returned no hosts, keeping host",
			slog.String("host", c.host),
		)

		return c.host
	}

	return "https://" + out.API[0]
}
