// Package mpd is a client for the Music Player Daemon protocol.
//
// A Client keeps a pool of connections to one server. Every reply is returned
// as a *response.Batch: a single command yields one segment, a command list
// yields one segment per command.
//
//	client, err := mpd.NewClient(mpd.Config{Addr: "localhost:6600"})
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	b, err := client.DoList(ctx,
//		protocol.NewCommand("status"),
//		protocol.NewCommand("currentsong"),
//	)
//	if err != nil {
//		return err
//	}
//	song, err := protocol.DecodeAt(b, 1, protocol.Pairs())
//
// Commands rejected by the server return a *protocol.AckError and leave the
// connection in the pool. I/O and parse failures close it.
package mpd
