package pcloud

import "context"

// UserInfo returns account details and quota for the authenticated
// user.
func (c *Client) UserInfo(ctx context.Context) (*UserInfo, error) {
	var out UserInfo
	if err := c.getJSON(ctx, "userinfo", nil, &out); err != nil {
		return nil, err
	}

	return &out, nil
}
