// Package client provides the client side of rKV. It speaks RESP to an rKV server through
// any transport.IRPCClientTransport (tcp or unix).
//
// The client implements store.IStore, so code written against the store interface can run
// against an embedded local store or a remote server without changes:
//
//   - Set and SetE send SET, with the ttl expressed as "PX <milliseconds>"
//   - Get maps a bulk reply to db.StatusFound, a null reply to db.StatusExpired and the
//     "key not found" error reply to db.StatusNotFound
//
// On top of that it offers Ping, Echo and Do. Do sends an arbitrary command and returns the
// raw reply, which the command line tool uses to print replies like redis-cli does.
//
// Other error replies of the server are returned as *store.Error with RetCInvalidOperation,
// transport failures as *store.Error with RetCInternalError.
//
// Usage:
//
//	c, err := client.NewRPCClient(config, tcp.NewTCPClientTransport())
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//
//	_ = c.SetE("session", []byte("data"), 5000)
//	value, status, err := c.Get("session")
package client
