// Package chat is the IRC transport for the session controller.
//
// One Transport is one connection attempt, registered under the nick the
// session factory asks for. Server messages become session events:
//   - RPL_WELCOME (001) becomes Connected
//   - our own JOIN becomes Joined, anyone else's becomes UserEntered
//   - PRIVMSG to a channel becomes Line, or Action for a CTCP ACTION
//   - PRIVMSG to our nick becomes a Line targeted at that nick
//   - ERR_NICKNAMEINUSE (433) becomes NickCollision and NICK becomes NickChanged
//
// A collision is resolved by the factory dialing a new Transport under the
// next nick.
//
// TLS is used for port 443 and 6697, or when forced by configuration. An
// empty password registers without PASS.
package chat
