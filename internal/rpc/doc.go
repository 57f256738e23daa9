// Package rpc is a client for the monitoring console's JSON RPC routers.
//
// The console exposes Ext.Direct style routers over HTTP. Each call is a POST
// to /zport/dmd/<endpoint> carrying one request object:
//
//	{"action": "ApplicationRouter", "method": "restart",
//	 "data": [{"uids": ["/zport/dmd/Monitors/Hub/localhost/zenhub"]}],
//	 "type": "rpc", "tid": 7}
//
// and is answered with either
//
//	{"type": "rpc", "tid": 7, "result": {"success": true}}
//
// or an exception
//
//	{"type": "exception", "tid": 7, "message": "..."}
//
// Client.Call handles the envelope. The typed routers (Applications, Devices,
// Jobs, Networks) wrap Call with the parameter and result shapes of each
// method. A result with success=false is returned to the caller as data, not
// as an error: the caller decides what "rejected" means for its state.
package rpc
