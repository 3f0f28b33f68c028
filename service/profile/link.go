package profile

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/lonesomestranger/3x-ui-manager/api"
)

// VisionFlow is the only connection mode this profile type supports. It is
// forced into every generated link regardless of the stored client flow.
const VisionFlow = "xtls-rprx-vision-udp443"

const defaultFingerprint = "chrome"

// BuildVlessLink derives a shareable connection URI from the inbound's
// transport and security settings plus the client identity. It is a pure
// function: identical inputs always produce the identical string, and the
// query parameter order is fixed.
func BuildVlessLink(inbound *api.Inbound, clientID, remark, publicHost string) (string, error) {
	stream, err := inbound.Stream()
	if err != nil {
		return "", err
	}

	network := stream.Network
	if network == "" {
		network = "tcp"
	}

	var pbk, fp, sni, sid, spx string
	if stream.Reality != nil {
		pbk = stream.Reality.GetPublicKey()
		fp = stream.Reality.GetFingerprint()
		spx = stream.Reality.GetSpiderX()
		if len(stream.Reality.ServerNames) > 0 {
			sni = stream.Reality.ServerNames[0]
		}
		if len(stream.Reality.ShortIDs) > 0 {
			sid = stream.Reality.ShortIDs[0]
		}
	}
	if fp == "" {
		fp = defaultFingerprint
	}

	params := [][2]string{
		{"type", network},
		{"security", stream.Security},
		{"flow", VisionFlow},
		{"pbk", pbk},
		{"fp", fp},
		{"sni", sni},
	}
	if sid != "" {
		params = append(params, [2]string{"sid", sid})
	}
	if spx != "" {
		params = append(params, [2]string{"spx", spx})
	}

	var query strings.Builder
	for i, param := range params {
		if i > 0 {
			query.WriteByte('&')
		}
		query.WriteString(param[0])
		query.WriteByte('=')
		query.WriteString(escape(param[1]))
	}

	inboundRemark := inbound.Remark
	if inboundRemark == "" {
		inboundRemark = "VLESS"
	}
	fragment := inboundRemark + "-" + escape(remark)

	return fmt.Sprintf("vless://%s@%s:%d?%s#%s",
		clientID, publicHost, inbound.Port, query.String(), fragment), nil
}

// escape percent-encodes a value with %20 for spaces, the form clients of
// these links expect.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
