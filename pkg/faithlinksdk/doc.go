/*
Package faithlinksdk is a Go client for the FaithLink360 gateway API.

# SDKClient vs Session

SDKClient covers the public endpoints and logs members in:

	client := faithlinksdk.NewSDKClient("https://api.faithlink360.org")

	health, err := client.GetReadiness(ctx)

	session, err := client.Login(ctx, "ruth@church-a.org", password)

A Session carries the bearer token and the member it belongs to:

	me, err := session.Me(ctx)
	members, err := session.ListMembers(ctx, "")        // own church
	members, err = session.ListMembers(ctx, "church-b") // admins only
	err = session.Logout(ctx)

Tokens are not refreshed. Once a session expires, log in again.

# Role Checks

ListMembers requires a directory role (ADMIN, PASTOR, CARE_TEAM or
GROUP_LEADER). The session checks the role it was issued before calling the
server; set CheckRoles to false to exercise the server-side check instead.

# Error Handling

Non-2xx responses are returned as *APIError carrying the gateway's error
code:

	_, err := session.ListMembers(ctx, "church-b")
	if faithlinksdk.IsCode(err, faithlinksdk.CodeChurchAccessDenied) {
		// not allowed to read another church
	}

# Thread Safety

Sessions are safe for concurrent use.
*/
package faithlinksdk
