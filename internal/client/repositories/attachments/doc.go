// Package attachments stores the locally captured files that belong to a
// pending record, in capture order, together with the remote file id each
// one receives once uploaded.
package attachments
