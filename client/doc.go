// Package client implements the toolkit side of enaml: proxy widgets that
// own native objects and talk to their shell widgets over pipes.
//
// Widgets
//
// A proxy widget embeds Base and implements the capability interfaces
// Creatable, Initializable, Bindable, MessageHandler and Destroyable. Base
// supplies defaults for all but Create, so a minimal widget only needs to
// create its native object:
//
//	type Frame struct {
//	    client.Base
//	}
//
//	func (f *Frame) Create(parent native.Object) error {
//	    _, err := f.CreateHandle("QFrame", parent)
//	    return err
//	}
//
// Inbound messages are dispatched through explicit tables built once per
// type and installed with Handle. A message with no handler is answered
// with pipe.NotImplemented; it is not an error.
//
// Lifecycle
//
// Each widget moves strictly forward through the states Uncreated, Created,
// Initialized, Bound and Live, and may be Destroyed from any of them. The
// Builder drives the transitions; Base rejects anything out of order.
// Destroy releases children last-first, stops inbound delivery, then
// detaches and destroys the native object.
//
// Application
//
// An Application is an explicit session context. It allocates the pipe
// pair of every shell widget, owns the one Builder, and indexes the live
// widgets so that parent references can stay weak. Nothing here is global;
// separate Applications share no state.
package client
