// Package sesh provides persistent interactive command execution over local
// and remote shells.
//
// A session keeps one shell alive across commands, so working directory,
// exported variables and other shell state carry over between calls. Output
// of each command is framed with end markers, demultiplexed into stdout and
// stderr and paired with the command's exit status. The service facade
// caches one session per host, screens commands through an optional policy
// and records every outcome in a journal:
//
//	srv, _ := sesh.New(sesh.WithHosts(&model.Host{URL: "localhost"}))
//	defer srv.Close(ctx)
//	entry, _ := srv.Run(ctx, "localhost", "cd /tmp && ls")
//	fmt.Println(entry.Stdout)
//
// Remote hosts are reached over SSH with credentials resolved through scy.
// Queued batch execution is available through the dispatcher:
//
//	_ = srv.Start(ctx)
//	id, _ := srv.Dispatcher().Submit(ctx, &dispatcher.Request{Host: "localhost", Command: "make test"})
//	entry, _ := srv.Dispatcher().Wait(ctx, id, 120000)
//
// For more details see the README and individual sub-packages.
package sesh
