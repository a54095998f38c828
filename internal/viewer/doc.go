// Package viewer is the headless annotation engine behind every front end.
//
// It turns a live text selection into a draft, commits drafts and panel
// submissions through a driving.AnnotationService, caches the fetched
// annotations of the active page, and projects them onto the rendered
// page as drawable, hit-testable regions.
//
// All types here are confined to one goroutine (a bubbletea Update loop
// or a CLI command). The only work meant to run elsewhere is Op.Execute
// and FetchTicket.Fetch; both touch the service and nothing else. Their
// results come back through Session.Finish and Session.Complete.
//
// Typical flow:
//
//	op, err := session.StartHighlight("#fde047") // Drafting -> Committing
//	err = op.Execute(ctx, svc)                  // off the event goroutine
//	ticket, ok := session.Finish(op, err)       // Committing -> Idle
//	set, err := ticket.Fetch(ctx, svc)          // off the event goroutine
//	err = session.Complete(ticket, set, err)    // stale results dropped
package viewer
